package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/vietshare/internal/apperror"
)

func TestIssueAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", "vietshare", time.Hour)
	token, exp, err := tm.Issue("alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	userID, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestValidateRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", "vietshare", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := tm.Issue("alice")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	tm := NewTokenManager("secret", "vietshare", time.Hour)

	other := NewTokenManager("other", "vietshare", time.Hour)
	token, _, err := other.Issue("alice")
	require.NoError(t, err)
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	wrongIssuer := NewTokenManager("secret", "elsewhere", time.Hour)
	token, _, err = wrongIssuer.Issue("alice")
	require.NoError(t, err)
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "alice"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Validate(raw)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = tm.Validate("garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), apperror.ErrUnauthorized)
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatRoomID_IsOrderIndependent(t *testing.T) {
	assert.Equal(t, "alice_bob", ChatRoomID("alice", "bob"))
	assert.Equal(t, "alice_bob", ChatRoomID("bob", "alice"))
}

func TestOtherInRoomID(t *testing.T) {
	other, ok := OtherInRoomID("alice_bob", "alice")
	assert.True(t, ok)
	assert.Equal(t, "bob", other)

	_, ok = OtherInRoomID("alice_bob", "carol")
	assert.False(t, ok)

	_, ok = OtherInRoomID("group-room-id", "alice")
	assert.False(t, ok)
}

func TestUnreadRecipients(t *testing.T) {
	direct := Chat{RoomID: "alice_bob", Type: ChatOneToOne, ParticipantIDs: []string{"alice", "bob"}}
	assert.Equal(t, []string{"bob"}, direct.UnreadRecipients("alice"))

	group := Chat{RoomID: "g1", Type: ChatGroup, ParticipantIDs: []string{"alice", "bob", "carol"}}
	assert.Equal(t, []string{"alice", "carol"}, group.UnreadRecipients("bob"))
}

func TestMessagePreview(t *testing.T) {
	text := "hi"
	assert.Equal(t, "hi", (&Message{Content: &text}).Preview())
	assert.Equal(t, LastMessageImage, (&Message{Content: &text, Media: &MediaInfo{URL: "u"}}).Preview())
	assert.Equal(t, "", (&Message{}).Preview())
}

func TestNewFriendship_SortsParticipants(t *testing.T) {
	f := NewFriendship("zed", "amy", timeZero)
	assert.Equal(t, []string{"amy", "zed"}, f.ParticipantIDs)
	assert.Equal(t, "amy_zed", f.ID)
	assert.Equal(t, "zed", f.UserAID)
	assert.Equal(t, FriendshipPending, f.Status)
}

func TestNormalize_FillsNilCollections(t *testing.T) {
	u := User{}
	u.Normalize()
	assert.NotNil(t, u.Followers)
	assert.NotNil(t, u.Following)
	assert.NotNil(t, u.Settings)

	p := Post{}
	p.Normalize()
	assert.NotNil(t, p.Likes)
	assert.NotNil(t, p.Media)

	c := Comment{}
	c.Normalize()
	assert.NotNil(t, c.Reactions)
}

var timeZero = time.Time{}

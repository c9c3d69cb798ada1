package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/auth"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type AccountService struct {
	users       repository.UserRepository
	credentials repository.CredentialRepository
	tokens      *auth.TokenManager
	log         *zap.SugaredLogger
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
}

type SignupInput struct {
	Email       string
	Password    string
	Username    string
	DisplayName string
}

func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, invalid("email and password are required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	userID := uuid.NewString()
	if err := s.credentials.CreateCredentials(ctx, &models.Credentials{UserID: userID, Email: email, PasswordHash: hash}); err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	u := &models.User{
		UserID:      userID,
		Username:    strings.TrimSpace(in.Username),
		Email:       email,
		DisplayName: displayName,
		LastActive:  time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Infow("user signed up", "userId", userID)
	return s.session(userID)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	c, err := s.credentials.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", apperror.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(c.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperror.ErrUnauthorized)
	}
	if err := s.users.TouchLastActive(ctx, c.UserID); err != nil {
		s.log.Warnw("touch last active on login", "userId", c.UserID, "error", err)
	}
	return s.session(c.UserID)
}

func (s *AccountService) session(userID string) (*Session, error) {
	token, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, UserID: userID}, nil
}

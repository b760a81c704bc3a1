package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/helper"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/queue"
	"go.uber.org/zap"
)

const methodLocal = "local"

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// CreateLocal registers a password account. The store's unique index
// decides collisions; an existing account is never touched.
func (s *Service) CreateLocal(ctx context.Context, in domain.UserCreate) (*domain.User, error) {
	email := helper.NormalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	switch {
	case in.Password == "":
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	case len(in.Password) > maxPasswordBytes:
		return nil, fmt.Errorf("%w: password longer than %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.store.CreateUser(ctx, &domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Picture:      strings.TrimSpace(in.Picture),
		PasswordHash: hash,
		CreatedAt:    s.stamp(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			outcome(methodLocal, "duplicate")
		}
		return nil, err
	}

	log.Req(ctx).Info("local user registered", zap.String("user_id", created.ID), zap.String("email_hash", helper.Hash8(email)))
	s.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: created.ID, Email: created.Email, Name: created.Name, Method: methodLocal,
	})
	return created.Public(), nil
}

// Authenticate checks a local email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.store.FindLocalUserByEmail(ctx, helper.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return u.Public(), nil
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			outcome(methodLocal, "rejected")
		}
		return nil, err
	}
	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	outcome(methodLocal, "ok")
	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID, Email: u.Email, Method: methodLocal})
	return sess, nil
}

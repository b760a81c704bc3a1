package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tazhibayda/auth-gateway/internal/domain"
)

// ResolveSession maps a session token to its user. The user is read from
// the store on every call.
func (s *Service) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no session", domain.ErrUnauthenticated)
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindUserByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: session user no longer exists", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

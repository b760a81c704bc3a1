package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/queue"
	"go.uber.org/zap"
)

// UpsertFromProvider finds the user bound to (provider, provider_id) or
// creates it. A returning user only gets updated_at bumped; name and picture
// keep the values from the first login. When a concurrent first login wins
// the insert, the lookup runs once more and returns the winner's record.
func (s *Service) UpsertFromProvider(ctx context.Context, p domain.ProviderProfile) (*domain.User, error) {
	if p.Provider == "" || p.ProviderID == "" {
		return nil, fmt.Errorf("%w: profile without provider identity", domain.ErrInvalidInput)
	}

	for attempt := 0; ; attempt++ {
		existing, err := s.store.FindUserByProvider(ctx, p.Provider, p.ProviderID)
		if err == nil {
			return s.touch(ctx, existing)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		created, err := s.store.CreateUser(ctx, &domain.User{
			Provider:   p.Provider,
			ProviderID: p.ProviderID,
			Email:      p.Email,
			Name:       p.Name,
			Picture:    p.Picture,
			CreatedAt:  s.stamp(),
		})
		if err == nil {
			log.Req(ctx).Info("federated user created",
				zap.String("user_id", created.ID), zap.String("provider", p.Provider))
			s.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
				UserID: created.ID, Email: created.Email, Name: created.Name, Method: p.Provider,
			})
			return created.Public(), nil
		}
		if !errors.Is(err, domain.ErrDuplicate) || attempt > 0 {
			return nil, err
		}
	}
}

func (s *Service) touch(ctx context.Context, u *domain.User) (*domain.User, error) {
	updated, err := s.store.TouchUser(ctx, u.ID, s.stamp())
	if err != nil {
		return nil, err
	}
	return updated.Public(), nil
}

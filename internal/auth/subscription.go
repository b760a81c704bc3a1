package auth

import (
	"context"

	"github.com/tazhibayda/auth-gateway/internal/domain"
)

// UpdateSubscription creates or replaces the subscription of userID.
func (s *Service) UpdateSubscription(ctx context.Context, userID string, in domain.Subscription) (*domain.Subscription, error) {
	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := u.Subscription.Apply(in, s.stamp())
	if err != nil {
		return nil, err
	}
	updated, err := s.store.SetSubscription(ctx, u.ID, next)
	if err != nil {
		return nil, err
	}
	return updated.Subscription, nil
}

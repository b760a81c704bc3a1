package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazhibayda/auth-gateway/internal/domain"
)

type userStore interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindLocalUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	TouchUser(ctx context.Context, id, updatedAt string) (*domain.User, error)
	SetSubscription(ctx context.Context, id string, sub *domain.Subscription) (*domain.User, error)
	Ping(ctx context.Context) error
}

// runStoreContract checks the behaviour every store implementation shares.
func runStoreContract(t *testing.T, s userStore) {
	ctx := context.Background()

	local := &domain.User{Email: "ann@example.com", Username: "ann", PasswordHash: "$2a$10$hash", CreatedAt: "2026-01-01 10:00:00"}
	fed := &domain.User{Provider: "github", ProviderID: "42", Email: "ann@example.com", Name: "ann", CreatedAt: "2026-01-01 10:00:00"}

	t.Run("create and find", func(t *testing.T) {
		got, err := s.CreateUser(ctx, local)
		require.NoError(t, err)
		require.NotEmpty(t, got.ID)
		assert.Empty(t, local.ID, "input must not be mutated")

		byID, err := s.FindUserByID(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, "ann", byID.Username)
		assert.Equal(t, "$2a$10$hash", byID.PasswordHash)

		byEmail, err := s.FindLocalUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, got.ID, byEmail.ID)
	})

	t.Run("federated record shares email with local", func(t *testing.T) {
		got, err := s.CreateUser(ctx, fed)
		require.NoError(t, err)

		byProv, err := s.FindUserByProvider(ctx, "github", "42")
		require.NoError(t, err)
		assert.Equal(t, got.ID, byProv.ID)
		assert.Empty(t, byProv.PasswordHash)

		byEmail, err := s.FindLocalUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, got.ID, byEmail.ID)
	})

	t.Run("duplicates", func(t *testing.T) {
		_, err := s.CreateUser(ctx, &domain.User{Email: "ann@example.com", PasswordHash: "other", CreatedAt: "x"})
		assert.ErrorIs(t, err, domain.ErrDuplicate)

		_, err = s.CreateUser(ctx, &domain.User{Provider: "github", ProviderID: "42", Email: "z@z.z", CreatedAt: "x"})
		assert.ErrorIs(t, err, domain.ErrDuplicate)

		still, err := s.FindLocalUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$hash", still.PasswordHash)
	})

	t.Run("invalid record rejected", func(t *testing.T) {
		_, err := s.CreateUser(ctx, &domain.User{Email: "x@y.z"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("touch and subscription", func(t *testing.T) {
		u, err := s.FindUserByProvider(ctx, "github", "42")
		require.NoError(t, err)
		assert.Empty(t, u.UpdatedAt)

		touched, err := s.TouchUser(ctx, u.ID, "2026-01-02 11:00:00")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-02 11:00:00", touched.UpdatedAt)
		assert.Equal(t, u.Name, touched.Name)

		sub := &domain.Subscription{Tier: domain.TierPro, StartDate: "a", EndDate: "b", Active: true, Price: 9.5, CreatedAt: "c"}
		withSub, err := s.SetSubscription(ctx, u.ID, sub)
		require.NoError(t, err)
		require.NotNil(t, withSub.Subscription)
		assert.Equal(t, *sub, *withSub.Subscription)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.FindUserByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = s.FindLocalUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = s.FindUserByProvider(ctx, "google", "42")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = s.TouchUser(ctx, "missing", "t")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent identity insert", func(t *testing.T) {
		var wg sync.WaitGroup
		var created, dups atomic.Int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.CreateUser(ctx, &domain.User{Provider: "google", ProviderID: "race", Email: "r@x.io", CreatedAt: "t"})
				switch {
				case err == nil:
					created.Add(1)
				case assert.ErrorIs(t, err, domain.ErrDuplicate):
					dups.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, int32(7), dups.Load())
	})

	require.NoError(t, s.Ping(ctx))
}

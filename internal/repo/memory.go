package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tazhibayda/auth-gateway/internal/domain"
)

// MemoryStore keeps users in process. It enforces the same unique
// constraints as the database stores and is meant for tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	localEmail map[string]string
	identity   map[[2]string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*domain.User),
		localEmail: make(map[string]string),
		identity:   make(map[[2]string]string),
	}
}

func (s *MemoryStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *MemoryStore) FindLocalUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.localEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.get(id)
}

func (s *MemoryStore) FindUserByProvider(_ context.Context, provider, providerID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identity[[2]string{provider, providerID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.get(id)
}

func (s *MemoryStore) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{u.Provider, u.ProviderID}
	if u.IsLocal() {
		if _, taken := s.localEmail[u.Email]; taken {
			return nil, domain.ErrDuplicate
		}
	} else if _, taken := s.identity[key]; taken {
		return nil, domain.ErrDuplicate
	}

	rec := clone(u)
	rec.ID = uuid.NewString()
	s.byID[rec.ID] = rec
	if rec.IsLocal() {
		s.localEmail[rec.Email] = rec.ID
	} else {
		s.identity[key] = rec.ID
	}
	return clone(rec), nil
}

func (s *MemoryStore) TouchUser(_ context.Context, id, updatedAt string) (*domain.User, error) {
	return s.mutate(id, func(u *domain.User) { u.UpdatedAt = updatedAt })
}

func (s *MemoryStore) SetSubscription(_ context.Context, id string, sub *domain.Subscription) (*domain.User, error) {
	return s.mutate(id, func(u *domain.User) {
		if sub == nil {
			u.Subscription = nil
			return
		}
		cp := *sub
		u.Subscription = &cp
	})
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MemoryStore) mutate(id string, fn func(*domain.User)) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fn(u)
	return clone(u), nil
}

func (s *MemoryStore) get(id string) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func clone(u *domain.User) *domain.User {
	cp := *u
	if u.Subscription != nil {
		sub := *u.Subscription
		cp.Subscription = &sub
	}
	return &cp
}

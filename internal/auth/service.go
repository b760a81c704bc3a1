// Package auth holds the gateway's sign-in flows: local credentials,
// the OAuth authorization-code exchange, identity reconciliation and
// session resolution. It depends on a Store and never on a concrete database.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/metrics"
	"github.com/tazhibayda/auth-gateway/internal/oauth"
	"github.com/tazhibayda/auth-gateway/internal/queue"
	"github.com/tazhibayda/auth-gateway/internal/security"
	"go.uber.org/zap"
)

// Store persists users. Implementations keep (provider, provider_id) and
// local email unique and report collisions as domain.ErrDuplicate.
type Store interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindLocalUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	TouchUser(ctx context.Context, id, updatedAt string) (*domain.User, error)
	SetSubscription(ctx context.Context, id string, sub *domain.Subscription) (*domain.User, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Store           Store
	Hasher          *security.Hasher
	Tokens          *security.TokenService
	Providers       *oauth.Registry
	States          *oauth.StateSigner
	Events          queue.Publisher
	TokenTTL        time.Duration
	ProviderTimeout time.Duration
	Now             func() time.Time
}

type Service struct {
	store     Store
	hasher    *security.Hasher
	tokens    *security.TokenService
	providers *oauth.Registry
	states    *oauth.StateSigner
	events    queue.Publisher
	ttl       time.Duration
	timeout   time.Duration
	now       func() time.Time
}

// Session is what a successful sign-in hands to the transport layer.
type Session struct {
	Token string
	User  *domain.User
	TTL   time.Duration
}

func NewService(d Deps) *Service {
	s := &Service{
		store:     d.Store,
		hasher:    d.Hasher,
		tokens:    d.Tokens,
		providers: d.Providers,
		states:    d.States,
		events:    d.Events,
		ttl:       d.TokenTTL,
		timeout:   d.ProviderTimeout,
		now:       d.Now,
	}
	if s.hasher == nil {
		s.hasher = security.NewHasher(security.MinCost)
	}
	if s.providers == nil {
		s.providers = oauth.NewRegistry()
	}
	if s.states == nil {
		s.states = oauth.NewStateSigner(randomKey(), oauth.DefaultStateTTL)
	}
	if s.events == nil {
		s.events = queue.NewNoop()
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Minute
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) TokenTTL() time.Duration { return s.ttl }

func (s *Service) Providers() []string { return s.providers.Names() }

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *Service) stamp() string { return domain.Stamp(s.now()) }

func (s *Service) issue(u *domain.User) (*Session, error) {
	tok, err := s.tokens.Issue(u.ID, u.Email, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, User: u, TTL: s.ttl}, nil
}

// publish ignores request cancellation. Failures are logged, never returned.
func (s *Service) publish(ctx context.Context, key string, ev any) {
	ctx = context.WithoutCancel(ctx)
	if err := s.events.Publish(ctx, key, ev, log.RequestID(ctx)); err != nil {
		log.Req(ctx).Warn("publish event failed", zap.String("key", key), zap.Error(err))
	}
}

func outcome(method, result string) {
	metrics.AuthOutcomes.WithLabelValues(method, result).Inc()
}

func randomKey() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/oauth"
	"github.com/tazhibayda/auth-gateway/internal/repo"
	"github.com/tazhibayda/auth-gateway/internal/security"
	"golang.org/x/oauth2"
)

// clock is a settable time source shared by the service under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stubProvider answers exchange and profile calls without a network.
// Normalization is delegated to the real adapter of the same name.
type stubProvider struct {
	oauth.Provider
	mu          sync.Mutex
	profile     map[string]any
	exchangeErr error
	delay       time.Duration
	exchanges   int
}

func newStub(name string, profile map[string]any) *stubProvider {
	var real oauth.Provider
	switch name {
	case "google":
		real = oauth.NewGoogle(config.ProviderConfig{}, time.Second)
	default:
		real = oauth.NewGitHub(config.ProviderConfig{}, time.Second)
	}
	return &stubProvider{Provider: real, profile: profile}
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	p.mu.Lock()
	p.exchanges++
	delay, err := p.delay, p.exchangeErr
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: "at-" + code}, nil
}

func (p *stubProvider) FetchProfile(context.Context, *oauth2.Token) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.profile))
	for k, v := range p.profile {
		out[k] = v
	}
	return out, nil
}

func (p *stubProvider) setProfile(profile map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = profile
}

type recordedEvent struct {
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingPublisher) Publish(_ context.Context, key string, event any, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{key: key, event: event})
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.key)
	}
	return out
}

type fixture struct {
	svc    *Service
	store  *repo.MemoryStore
	tokens *security.TokenService
	clock  *clock
	events *recordingPublisher
	github *stubProvider
	google *stubProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewHMAC("HS256", []byte("test-secret"))
	require.NoError(t, err)

	f := &fixture{
		store:  repo.NewMemoryStore(),
		tokens: tokens,
		clock:  &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		events: &recordingPublisher{},
		github: newStub("github", map[string]any{"id": float64(4242), "login": "bob", "email": nil, "name": nil}),
		google: newStub("google", map[string]any{"id": "g-1", "email": "alice@example.com", "name": "Alice"}),
	}
	f.svc = NewService(Deps{
		Store:           f.store,
		Hasher:          security.NewHasher(security.MinCost),
		Tokens:          tokens,
		Providers:       oauth.NewRegistry(f.github, f.google),
		States:          oauth.NewStateSigner("state-secret", time.Minute),
		Events:          f.events,
		TokenTTL:        30 * time.Minute,
		ProviderTimeout: 200 * time.Millisecond,
		Now:             f.clock.Now,
	})
	return f
}

// callback runs a full redirect + callback round trip for provider.
func (f *fixture) callback(t *testing.T, provider string) (*Session, error) {
	t.Helper()
	r, err := f.svc.BeginLogin(provider)
	require.NoError(t, err)
	return f.svc.CompleteLogin(context.Background(), provider, "code-1", r.State, r.State)
}

func (f *fixture) register(t *testing.T, email, password string) *domain.User {
	t.Helper()
	u, err := f.svc.CreateLocal(context.Background(), domain.UserCreate{Email: email, Password: password, Username: "user"})
	require.NoError(t, err)
	return u
}

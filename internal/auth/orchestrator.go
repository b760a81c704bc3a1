package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/metrics"
	"github.com/tazhibayda/auth-gateway/internal/oauth"
	"github.com/tazhibayda/auth-gateway/internal/queue"
	"go.uber.org/zap"
)

type Redirect struct {
	URL   string
	State string
}

// BeginLogin resolves the provider before anything else, so an unknown name
// never reaches the network.
func (s *Service) BeginLogin(provider string) (*Redirect, error) {
	p, err := s.providers.Get(provider)
	if err != nil {
		return nil, err
	}
	state, err := s.states.New(p.Name())
	if err != nil {
		return nil, err
	}
	return &Redirect{URL: p.AuthCodeURL(state), State: state}, nil
}

// CompleteLogin handles the provider callback: check state, exchange the
// code, fetch the profile, reconcile, issue. No record is written unless
// the profile fetch succeeded.
func (s *Service) CompleteLogin(ctx context.Context, provider, code, state, expectedState string) (*Session, error) {
	p, err := s.providers.Get(provider)
	if err != nil {
		return nil, err
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		outcome(p.Name(), "bad_state")
		return nil, fmt.Errorf("%w: state mismatch", domain.ErrInvalidState)
	}
	if err := s.states.Verify(state, p.Name()); err != nil {
		outcome(p.Name(), "bad_state")
		return nil, err
	}

	profile, err := s.fetchProfile(ctx, p, code)
	if err != nil {
		outcome(p.Name(), "provider_error")
		log.Req(ctx).Warn("provider exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderExchange, err)
	}

	u, err := s.UpsertFromProvider(ctx, profile)
	if err != nil {
		return nil, err
	}
	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	outcome(p.Name(), "ok")
	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID, Email: u.Email, Method: p.Name()})
	return sess, nil
}

// fetchProfile bounds each provider call by the configured timeout. Failures are not retried.
func (s *Service) fetchProfile(ctx context.Context, p oauth.Provider, code string) (domain.ProviderProfile, error) {
	exCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	tok, err := p.Exchange(exCtx, code)
	metrics.ProviderCall.WithLabelValues(p.Name(), "exchange").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.ProviderProfile{}, err
	}

	prCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start = time.Now()
	raw, err := p.FetchProfile(prCtx, tok)
	metrics.ProviderCall.WithLabelValues(p.Name(), "profile").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.ProviderProfile{}, err
	}
	return p.Normalize(raw)
}

package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"golang.org/x/oauth2"
)

// fakeProvider serves a token endpoint and a userinfo endpoint.
func fakeProvider(t *testing.T, profile map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func providerConfig(srv *httptest.Server, name string) config.ProviderConfig {
	return config.ProviderConfig{
		Name:         name,
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURL:  "http://localhost:8080/auth/callback/" + name,
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/user",
	}
}

func TestGitHub_ExchangeAndFetch(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"id": 42, "login": "bob", "name": nil, "email": nil, "avatar_url": "https://a/b.png"})
	gh := NewGitHub(providerConfig(srv, "github"), 2*time.Second)
	ctx := context.Background()

	tok, err := gh.Exchange(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "at-123", tok.AccessToken)

	raw, err := gh.FetchProfile(ctx, tok)
	require.NoError(t, err)

	p, err := gh.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderProfile{
		Provider:   "github",
		ProviderID: "42",
		Email:      "bob@github.com",
		Name:       "bob",
		Picture:    "https://a/b.png",
	}, p)
}

func TestExchange_Rejected(t *testing.T) {
	srv := fakeProvider(t, nil)
	g := NewGoogle(providerConfig(srv, "google"), 2*time.Second)

	_, err := g.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = g.Exchange(context.Background(), "")
	assert.Error(t, err)
}

func TestFetchProfile_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	pc := config.ProviderConfig{Name: "google", UserInfoURL: slow.URL}
	g := NewGoogle(pc, 50*time.Millisecond)
	tok := &oauth2.Token{AccessToken: "at-123", TokenType: "Bearer"}

	_, err := g.FetchProfile(context.Background(), tok)
	assert.Error(t, err)
}

func TestGoogle_Normalize(t *testing.T) {
	g := NewGoogle(config.ProviderConfig{}, time.Second)

	p, err := g.Normalize(map[string]any{"id": "g-1", "email": "Alice@Example.com", "name": "Alice", "picture": "p"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.Provider)
	assert.Equal(t, "g-1", p.ProviderID)
	assert.Equal(t, "alice@example.com", p.Email)

	p, err = g.Normalize(map[string]any{"sub": "g-2", "email": "x@y.z"})
	require.NoError(t, err)
	assert.Equal(t, "g-2", p.ProviderID)
	assert.Equal(t, "x@y.z", p.Name)

	_, err = g.Normalize(map[string]any{"id": "g-3"})
	assert.Error(t, err)
	_, err = g.Normalize(map[string]any{"email": "x@y.z"})
	assert.Error(t, err)
}

func TestGitHub_NormalizeKeepsPublicEmail(t *testing.T) {
	gh := NewGitHub(config.ProviderConfig{}, time.Second)
	p, err := gh.Normalize(map[string]any{"id": json.Number("7"), "login": "carol", "name": "Carol C", "email": "carol@corp.io"})
	require.NoError(t, err)
	assert.Equal(t, "7", p.ProviderID)
	assert.Equal(t, "carol@corp.io", p.Email)
	assert.Equal(t, "Carol C", p.Name)

	_, err = gh.Normalize(map[string]any{"id": json.Number("8")})
	assert.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	srv := fakeProvider(t, nil)
	gh := NewGitHub(providerConfig(srv, "github"), time.Second)

	u, err := url.Parse(gh.AuthCodeURL("st-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "st-1", q.Get("state"))
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/auth/callback/github", q.Get("redirect_uri"))
	assert.Equal(t, "user:email read:user", q.Get("scope"))
}

func TestRegistry(t *testing.T) {
	r, err := FromConfig(map[string]config.ProviderConfig{
		"google": {ClientID: "a", ClientSecret: "b"},
		"github": {ClientID: "c", ClientSecret: "d"},
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "google"}, r.Names())

	p, err := r.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name())

	_, err = r.Get("facebook")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)

	_, err = FromConfig(map[string]config.ProviderConfig{"okta": {}}, time.Second)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

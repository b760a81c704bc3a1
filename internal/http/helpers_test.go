package http_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/auth-gateway/internal/auth"
	"github.com/tazhibayda/auth-gateway/internal/config"
	api "github.com/tazhibayda/auth-gateway/internal/http"
	"github.com/tazhibayda/auth-gateway/internal/metrics"
	"github.com/tazhibayda/auth-gateway/internal/oauth"
	"github.com/tazhibayda/auth-gateway/internal/repo"
	"github.com/tazhibayda/auth-gateway/internal/security"
)

type testEnv struct {
	T      *testing.T
	Store  *repo.MemoryStore
	Keys   *security.KeyManager
	Router *gin.Engine
}

type envOptions struct {
	limiter api.Limiter
	rs256   bool
	secure  bool
	proxies []string
}

// fakeGitHub mimics GitHub's token and user endpoints.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":583231,"login":"bob","name":null,"email":null,"avatar_url":"https://avatars/bob"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.MustRegister()

	var (
		tokens *security.TokenService
		keys   *security.KeyManager
		err    error
	)
	if opts.rs256 {
		priv, kerr := rsa.GenerateKey(rand.Reader, 2048)
		if kerr != nil {
			t.Fatal(kerr)
		}
		keys = security.NewKeyManager("kid-test", priv)
		tokens, err = security.NewRS256(keys)
	} else {
		tokens, err = security.NewHMAC("HS256", []byte("handler-test-secret"))
	}
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	idp := fakeGitHub(t)
	gh := oauth.NewGitHub(config.ProviderConfig{
		Name:         "github",
		ClientID:     "gh-client",
		ClientSecret: "gh-secret",
		RedirectURL:  "http://localhost:8080/auth/callback/github",
		AuthURL:      idp.URL + "/login/oauth/authorize",
		TokenURL:     idp.URL + "/login/oauth/access_token",
		UserInfoURL:  idp.URL + "/user",
	}, 2*time.Second)

	store := repo.NewMemoryStore()
	svc := auth.NewService(auth.Deps{
		Store:           store,
		Hasher:          security.NewHasher(security.MinCost),
		Tokens:          tokens,
		Providers:       oauth.NewRegistry(gh),
		States:          oauth.NewStateSigner("state-secret", time.Minute),
		TokenTTL:        30 * time.Minute,
		ProviderTimeout: 2 * time.Second,
	})

	h := api.NewHandler(svc, keys, opts.limiter, opts.secure)
	h.TrustedProxies = opts.proxies
	return &testEnv{T: t, Store: store, Keys: keys, Router: api.NewRouter(h)}
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.doFrom("", method, path, body, cookies...)
}

// doFrom sends the request with X-Forwarded-For set to forwarded when it is not empty.
func (e *testEnv) doFrom(forwarded, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(email, password string) map[string]any {
	e.T.Helper()
	w := e.do("POST", "/auth/register", `{"email":"`+email+`","password":"`+password+`","username":"u"}`)
	if w.Code != http.StatusOK {
		e.T.Fatalf("register code=%d body=%s", w.Code, w.Body.String())
	}
	return decode(e.T, w)
}

// login returns the session cookie.
func (e *testEnv) login(email, password string) *http.Cookie {
	e.T.Helper()
	w := e.do("POST", "/auth/token", `{"email":"`+email+`","password":"`+password+`"}`)
	if w.Code != http.StatusOK {
		e.T.Fatalf("token code=%d body=%s", w.Code, w.Body.String())
	}
	c := cookie(w, "access_token")
	if c == nil || c.Value == "" {
		e.T.Fatalf("no access_token cookie in %v", w.Result().Cookies())
	}
	return c
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func stateFrom(t *testing.T, location string) string {
	t.Helper()
	u, err := url.Parse(location)
	if err != nil {
		t.Fatal(err)
	}
	return u.Query().Get("state")
}

func newRecorder() *httptest.ResponseRecorder { return httptest.NewRecorder() }

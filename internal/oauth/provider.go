// Package oauth adapts external identity providers to one capability set:
// build the authorization URL, exchange a code, fetch and normalize a profile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"golang.org/x/oauth2"
)

type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, tok *oauth2.Token) (map[string]any, error)
	Normalize(raw map[string]any) (domain.ProviderProfile, error)
}

// client carries the parts every adapter shares.
type client struct {
	name        string
	cfg         *oauth2.Config
	userInfoURL string
	http        *http.Client
}

func newClient(pc config.ProviderConfig, style oauth2.AuthStyle, timeout time.Duration) client {
	return client{
		name: pc.Name,
		cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       pc.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   pc.AuthURL,
				TokenURL:  pc.TokenURL,
				AuthStyle: style,
			},
		},
		userInfoURL: pc.UserInfoURL,
		http:        &http.Client{Timeout: timeout},
	}
}

func (c *client) Name() string { return c.name }

func (c *client) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

func (c *client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%s: empty authorization code", c.name)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", c.name, err)
	}
	return tok, nil
}

func (c *client) FetchProfile(ctx context.Context, tok *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s profile request: %w", c.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s profile request: status %d", c.name, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, 1<<20))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s profile decode: %w", c.name, err)
	}
	return raw, nil
}

func str(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

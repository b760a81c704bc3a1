package oauth

import (
	"fmt"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/helper"
	"golang.org/x/oauth2"
	ggoogle "golang.org/x/oauth2/google"
)

type Google struct {
	client
}

// NewGoogle falls back to the public Google endpoints for any URL left empty.
func NewGoogle(pc config.ProviderConfig, timeout time.Duration) *Google {
	if pc.Name == "" {
		pc.Name = "google"
	}
	if pc.AuthURL == "" {
		pc.AuthURL = ggoogle.Endpoint.AuthURL
	}
	if pc.TokenURL == "" {
		pc.TokenURL = ggoogle.Endpoint.TokenURL
	}
	if pc.UserInfoURL == "" {
		pc.UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
	if len(pc.Scopes) == 0 {
		pc.Scopes = []string{"openid", "email", "profile"}
	}
	return &Google{client: newClient(pc, oauth2.AuthStyleInParams, timeout)}
}

// Normalize reads the v2 userinfo shape ("id") and the OIDC shape ("sub").
// Google always discloses an email; a profile without one is rejected.
func (g *Google) Normalize(raw map[string]any) (domain.ProviderProfile, error) {
	id := helper.FirstNonEmpty(str(raw, "id"), str(raw, "sub"))
	if id == "" {
		return domain.ProviderProfile{}, fmt.Errorf("google profile: missing id")
	}
	email := helper.NormalizeEmail(str(raw, "email"))
	if email == "" {
		return domain.ProviderProfile{}, fmt.Errorf("google profile: missing email")
	}
	return domain.ProviderProfile{
		Provider:   g.name,
		ProviderID: id,
		Email:      email,
		Name:       helper.FirstNonEmpty(str(raw, "name"), email),
		Picture:    str(raw, "picture"),
	}, nil
}

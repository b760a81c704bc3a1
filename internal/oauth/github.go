package oauth

import (
	"fmt"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/helper"
	"golang.org/x/oauth2"
	ggithub "golang.org/x/oauth2/github"
)

// GitHubEmailDomain backs the synthetic address of accounts with a private email.
const GitHubEmailDomain = "github.com"

type GitHub struct {
	client
}

func NewGitHub(pc config.ProviderConfig, timeout time.Duration) *GitHub {
	if pc.Name == "" {
		pc.Name = "github"
	}
	if pc.AuthURL == "" {
		pc.AuthURL = ggithub.Endpoint.AuthURL
	}
	if pc.TokenURL == "" {
		pc.TokenURL = ggithub.Endpoint.TokenURL
	}
	if pc.UserInfoURL == "" {
		pc.UserInfoURL = "https://api.github.com/user"
	}
	if len(pc.Scopes) == 0 {
		pc.Scopes = []string{"user:email", "read:user"}
	}
	return &GitHub{client: newClient(pc, oauth2.AuthStyleInHeader, timeout)}
}

func (g *GitHub) Normalize(raw map[string]any) (domain.ProviderProfile, error) {
	id := str(raw, "id")
	if id == "" || id == "0" {
		return domain.ProviderProfile{}, fmt.Errorf("github profile: missing id")
	}
	login := str(raw, "login")
	email := helper.NormalizeEmail(str(raw, "email"))
	if email == "" {
		if login == "" {
			return domain.ProviderProfile{}, fmt.Errorf("github profile: no email and no login")
		}
		email = helper.NormalizeEmail(login + "@" + GitHubEmailDomain)
	}
	return domain.ProviderProfile{
		Provider:   g.name,
		ProviderID: id,
		Email:      email,
		Name:       helper.FirstNonEmpty(str(raw, "name"), login),
		Picture:    str(raw, "avatar_url"),
	}, nil
}

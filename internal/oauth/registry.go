package oauth

import (
	"fmt"
	"sort"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/domain"
)

// Registry is built once at startup and read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

// FromConfig builds an adapter for every configured provider.
func FromConfig(cfgs map[string]config.ProviderConfig, timeout time.Duration) (*Registry, error) {
	ps := make([]Provider, 0, len(cfgs))
	for name, pc := range cfgs {
		pc.Name = name
		switch name {
		case "google":
			ps = append(ps, NewGoogle(pc, timeout))
		case "github":
			ps = append(ps, NewGitHub(pc, timeout))
		default:
			return nil, fmt.Errorf("%w: no adapter for provider %q", domain.ErrConfiguration, name)
		}
	}
	return NewRegistry(ps...), nil
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

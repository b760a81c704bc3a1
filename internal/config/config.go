package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tazhibayda/auth-gateway/internal/domain"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is read once at process start and never mutated afterwards.
type Config struct {
	Port        string `env:"APP_PORT"    envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogJSON     bool   `env:"LOG_JSON"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI    string `env:"MONGODB_URI"  envDefault:"mongodb://localhost:27017"`
	MongoDB     string `env:"MONGO_DB"     envDefault:"auth_db"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	RedisAddr       string `env:"REDIS_ADDR"`
	RateLimitPerMin int    `env:"RATE_LIMIT_PER_MIN" envDefault:"5"`

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is honored. Empty trusts none.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	RabbitURL      string `env:"RABBIT_URL"`
	RabbitExchange string `env:"RABBIT_EXCHANGE" envDefault:"auth.events"`

	SecretKey       string `env:"SECRET_KEY"`
	JWTSecret       string `env:"SECRET_KEY_JWT"`
	Algorithm       string `env:"ALGORITHM"                   envDefault:"HS256"`
	JWTKeyPath      string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTKeyID        string `env:"JWT_KEY_ID"                  envDefault:"auth-gateway-1"`
	TokenTTLMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	BcryptCost      int    `env:"BCRYPT_COST"                 envDefault:"12"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT"        envDefault:"10s"`
	CallbackBaseURL string        `env:"OAUTH_CALLBACK_BASE_URL" envDefault:"http://localhost:8080"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
}

// ProviderConfig describes one external OAuth provider.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{domain.ErrConfiguration}, args...)...)
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return bad("MONGODB_URI is required")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return bad("POSTGRES_DSN is required")
		}
	case DriverMemory:
		if c.IsProduction() {
			return bad("memory store is not allowed in production")
		}
	default:
		return bad("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch strings.ToUpper(c.Algorithm) {
	case "HS256", "HS384", "HS512":
		if c.JWTSecret == "" {
			return bad("SECRET_KEY_JWT is required for %s", c.Algorithm)
		}
	case "RS256":
		if c.JWTKeyPath == "" {
			return bad("JWT_PRIVATE_KEY_PATH is required for RS256")
		}
	default:
		return bad("unsupported ALGORITHM %q", c.Algorithm)
	}

	if c.TokenTTLMinutes <= 0 {
		return bad("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return bad("PROVIDER_TIMEOUT must be positive")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return bad("TRUSTED_PROXIES: %q is neither an IP nor a CIDR", p)
		}
	}
	if len(c.Providers()) > 0 && c.SecretKey == "" {
		return bad("SECRET_KEY is required when an OAuth provider is configured")
	}
	return nil
}

// Providers returns the providers that have both client id and secret.
func (c Config) Providers() map[string]ProviderConfig {
	base := strings.TrimRight(c.CallbackBaseURL, "/")
	providers := make(map[string]ProviderConfig)
	if c.GoogleClientID != "" && c.GoogleClientSecret != "" {
		providers["google"] = ProviderConfig{
			Name:         "google",
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURL:  base + "/auth/callback/google",
			AuthURL:      "https://accounts.google.com/o/oauth2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	if c.GitHubClientID != "" && c.GitHubClientSecret != "" {
		providers["github"] = ProviderConfig{
			Name:         "github",
			ClientID:     c.GitHubClientID,
			ClientSecret: c.GitHubClientSecret,
			RedirectURL:  base + "/auth/callback/github",
			AuthURL:      "https://github.com/login/oauth/authorize",
			TokenURL:     "https://github.com/login/oauth/access_token",
			UserInfoURL:  "https://api.github.com/user",
			Scopes:       []string{"user:email", "read:user"},
		}
	}
	return providers
}

// NotifierConfig drives the event consumer process.
type NotifierConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogJSON     bool   `env:"LOG_JSON"`

	RabbitURL   string `env:"RABBIT_URL,required,notEmpty"`
	Exchange    string `env:"RABBIT_EXCHANGE"    envDefault:"auth.events"`
	Queue       string `env:"RABBIT_QUEUE"       envDefault:"auth.notify"`
	BindKey     string `env:"RABBIT_BIND_KEY"    envDefault:"user.*"`
	Concurrency int    `env:"RABBIT_CONCURRENCY" envDefault:"4"`
}

func LoadNotifier() (NotifierConfig, error) {
	var c NotifierConfig
	if err := env.Parse(&c); err != nil {
		return NotifierConfig{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if c.Concurrency <= 0 {
		return NotifierConfig{}, fmt.Errorf("%w: RABBIT_CONCURRENCY must be positive", domain.ErrConfiguration)
	}
	return c, nil
}

func (c NotifierConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

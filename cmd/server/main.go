package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhibayda/auth-gateway/internal/auth"
	"github.com/tazhibayda/auth-gateway/internal/config"
	api "github.com/tazhibayda/auth-gateway/internal/http"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/metrics"
	"github.com/tazhibayda/auth-gateway/internal/oauth"
	"github.com/tazhibayda/auth-gateway/internal/queue"
	"github.com/tazhibayda/auth-gateway/internal/repo"
	"github.com/tazhibayda/auth-gateway/internal/security"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	Version = "0.1.0"
	appName = "auth-gateway"
)

// @title Auth Gateway API
// @version 0.1.0
// @description Local and federated sign-in with cookie sessions.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Authentication gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations or create indexes, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	l, err := log.Init(cfg.IsProduction() || cfg.LogJSON)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, l, nil
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg config.Config) (auth.Store, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		s, err := repo.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(context.Background())
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	case config.DriverPostgres:
		s, err := repo.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres open: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		log.L().Warn("using in-memory store, data is lost on restart")
		return repo.NewMemoryStore(), func() {}, nil
	}
}

func tokens(cfg config.Config) (*security.TokenService, *security.KeyManager, error) {
	alg := strings.ToUpper(cfg.Algorithm)
	if alg != "RS256" {
		t, err := security.NewHMAC(alg, []byte(cfg.JWTSecret))
		return t, nil, err
	}
	keys, err := security.LoadKeyManager(cfg.JWTKeyID, cfg.JWTKeyPath)
	if err != nil {
		return nil, nil, err
	}
	t, err := security.NewRS256(keys)
	if err != nil {
		return nil, nil, err
	}
	return t, keys, nil
}

func migrate(ctx context.Context) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync() //nolint:errcheck

	_, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	closeStore()
	l.Info("schema is up to date", zap.String("driver", cfg.StoreDriver))
	return nil
}

func serve(ctx context.Context) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		tracer.Start(tracer.WithService(appName), tracer.WithEnv(cfg.Environment), tracer.WithServiceVersion(Version))
		defer tracer.Stop()
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tok, keys, err := tokens(cfg)
	if err != nil {
		return err
	}

	providers, err := oauth.FromConfig(cfg.Providers(), cfg.ProviderTimeout)
	if err != nil {
		return err
	}

	var events queue.Publisher = queue.NewNoop()
	if cfg.RabbitURL != "" {
		pub, err := queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return fmt.Errorf("rabbit: %w", err)
		}
		events = pub
	}
	defer events.Close() //nolint:errcheck

	var limiter api.Limiter = api.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	if cfg.RedisAddr != "" {
		rdb := repo.NewRedis(cfg.RedisAddr)
		defer rdb.Close() //nolint:errcheck
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pctx); err != nil {
			l.Warn("redis unreachable, limiter will fail open until it recovers", zap.Error(err))
		}
		cancel()
		limiter = rdb.Limiter("ratelimit", cfg.RateLimitPerMin, time.Minute)
	}

	metrics.MustRegister()

	svc := auth.NewService(auth.Deps{
		Store:           store,
		Hasher:          security.NewHasher(cfg.BcryptCost),
		Tokens:          tok,
		Providers:       providers,
		States:          oauth.NewStateSigner(cfg.SecretKey, oauth.DefaultStateTTL),
		Events:          events,
		TokenTTL:        cfg.TokenTTL(),
		ProviderTimeout: cfg.ProviderTimeout,
	})
	h := api.NewHandler(svc, keys, limiter, cfg.IsProduction())
	h.TrustedProxies = cfg.TrustedProxies

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	l.Info("listening",
		zap.String("addr", srv.Addr),
		zap.String("store", cfg.StoreDriver),
		zap.String("alg", tok.Algorithm()),
		zap.Strings("providers", svc.Providers()),
	)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		l.Info("shutting down")
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

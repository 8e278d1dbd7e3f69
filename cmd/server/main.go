// sachima serves a single workspace directory over HTTP.
//
// Reads are public; writes and /user/info need a bearer token obtained from
// /user/login. Prometheus metrics are served on a separate listener.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sachima/sachima/internal/api"
	"github.com/sachima/sachima/internal/auth"
	"github.com/sachima/sachima/internal/config"
	"github.com/sachima/sachima/internal/jwtcodec"
	"github.com/sachima/sachima/internal/logging"
	"github.com/sachima/sachima/internal/metrics"
	"github.com/sachima/sachima/internal/password"
	"github.com/sachima/sachima/internal/registry"
	"github.com/sachima/sachima/internal/retry"
	"github.com/sachima/sachima/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("SACHIMA_CONFIG"), "path to a TOML config file")
	flag.Usage = config.Usage(flag.PrintDefaults)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Can't use structured logging yet
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(2)
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogOutput,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "logging init error:", err)
		os.Exit(2)
	}
	defer logging.Sync()
	logging.Debug("configuration loaded", zap.String("file", *configPath))

	logging.Info("sachima starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("max_upload", cfg.MaxUpload.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal("server stopped", zap.Error(err))
	}
	logging.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	ws, err := workspace.New(cfg.Workspace)
	if err != nil {
		return err
	}
	logging.Info("workspace ready", zap.String("root", ws.Root()))

	reg, closeReg, err := openRegistry(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeReg()

	alg, err := jwtcodec.ParseAlgorithm(cfg.JWTAlgorithm, []byte(cfg.JWTSecret))
	if err != nil {
		return err
	}
	hasher, err := password.New(cfg.PasswordSalt, password.Scheme(cfg.PasswordScheme))
	if err != nil {
		return err
	}
	codec := jwtcodec.New(alg)
	authn := auth.New(codec, hasher, reg, cfg.TokenTTL)
	logging.Info("token codec ready",
		zap.String("algorithm", codec.Algorithm()),
		zap.Duration("ttl", cfg.TokenTTL),
		zap.String("password_scheme", cfg.PasswordScheme))

	srv := api.NewServer(ws, authn, cfg.MaxUpload)

	servers := []*http.Server{{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			logging.Info("listening", zap.String("addr", s.Addr))
			if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", s.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", s.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// openRegistry picks PostgreSQL when a URL is configured and the in-memory
// registry otherwise.
func openRegistry(ctx context.Context, databaseURL string) (registry.Registry, func(), error) {
	if databaseURL == "" {
		logging.Warn("no database-url configured, users are kept in memory")
		return registry.NewMemory(), func() {}, nil
	}

	logging.Info("connecting to PostgreSQL...")
	backoff := retry.Default()
	backoff.OnRetry = func(attempt int, wait time.Duration, err error) {
		logging.Warn("database not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	pg, err := retry.Do(ctx, backoff, func() (*registry.Postgres, error) {
		return registry.NewPostgres(databaseURL)
	})
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			logging.Error("closing registry", zap.Error(err))
		}
	}, nil
}

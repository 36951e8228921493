package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/bloomd/internal/bloomd/common/clock"
	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/config"
	"github.com/haukened/bloomd/internal/bloomd/gateways/transport"
	"github.com/haukened/bloomd/internal/bloomd/gateways/wire"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist/bolt"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist/lru"
	blredis "github.com/haukened/bloomd/internal/bloomd/repos/blacklist/redis"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist/textfile"
	"github.com/haukened/bloomd/internal/bloomd/repos/bloom"
	"github.com/haukened/bloomd/internal/bloomd/services/membership"
	"github.com/haukened/bloomd/internal/bloomd/services/session"
)

const (
	version = "0.1.0-dev"
	appName = "bloomd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired components of the server.
type Application struct {
	config    *config.AppConfig
	transport transport.ServerTransport
	service   *membership.Service
	sessions  session.Opener
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.Log.Level,
		"mode":      cfg.Mode,
		"filter":    cfg.Filter.Path,
		"hash":      cfg.Filter.Hash,
		"backend":   cfg.Blacklist.Backend,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	store, err := buildStore(cfg, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build exact store: %w", err)
	}

	cache, err := lru.New(cfg.Blacklist.Cache.Size)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create check cache: %w", err)
	}
	if cfg.Blacklist.Cache.Size == 0 {
		log.Info(map[string]any{"disabled": true}, "Check cache disabled")
	} else {
		log.Info(map[string]any{"type": "LRU", "size": cfg.Blacklist.Cache.Size}, "Check cache configured")
	}

	svc := membership.New(membership.Options{
		Store:         store,
		Cache:         cache,
		FilterPath:    cfg.Filter.Path,
		HashFamily:    bloom.Family(cfg.Filter.Hash),
		MaxFilterSize: cfg.Filter.MaxSize,
		MaxIterations: cfg.Filter.MaxIterations,
		Clock:         clk,
		Logger:        logger,
	})

	tr, err := transport.NewTransport(transport.TransportType(cfg.Mode), transport.Options{
		Addr:         cfg.Server.Addr(),
		Codec:        wire.NewTextCodec(),
		Logger:       logger,
		MaxConns:     cfg.Server.MaxConns,
		MaxLineBytes: cfg.Server.MaxLineBytes,
	})
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	return &Application{
		config:    cfg,
		transport: tr,
		service:   svc,
		sessions:  session.NewFactory(svc, logger),
	}, nil
}

// buildStore opens the configured exact-store backend.
func buildStore(cfg *config.AppConfig, clk clock.Clock, logger log.Logger) (blacklist.Store, error) {
	bl := cfg.Blacklist
	switch bl.Backend {
	case "file":
		log.Info(map[string]any{"backend": "file", "path": bl.Path}, "Exact store configured")
		return textfile.New(bl.Path, logger), nil
	case "bolt":
		store, err := bolt.New(bl.Path, clk)
		if err != nil {
			return nil, err
		}
		log.Info(map[string]any{"backend": "bolt", "path": bl.Path}, "Exact store configured")
		return store, nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: bl.Redis.Addr})
		log.Info(map[string]any{
			"backend": "redis",
			"addr":    bl.Redis.Addr,
			"key":     bl.Redis.Key,
			"timeout": bl.Redis.Timeout,
		}, "Exact store configured")
		return blredis.New(client, bl.Redis.Key, bl.Redis.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported blacklist backend: %s", bl.Backend)
	}
}

// Run starts the transport and blocks until ctx is cancelled or the
// transport runs out of input, then drains every session and closes the
// stores.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.sessions); err != nil {
		_ = app.service.Close()
		return fmt.Errorf("failed to start transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": app.config.Mode,
	}, "Server started")

	g, gctx := errgroup.WithContext(ctx)

	if interval := app.config.Stats.Interval; interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-app.transport.Done():
					return nil
				case <-ticker.C:
					log.Info(app.service.Stats().Fields(), "Stats")
				}
			}
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Info(nil, "Shutdown initiated")
		case <-app.transport.Done():
			log.Info(nil, "Input exhausted")
		}
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown stops the transport, waiting at most defaultShutdownTimeout for
// its workers, then logs final stats and closes the service.
func (app *Application) shutdown() error {
	stopped := make(chan error, 1)
	go func() { stopped <- app.transport.Stop() }()

	var errs []error
	select {
	case err := <-stopped:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		}
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		errs = append(errs, fmt.Errorf("shutdown timeout"))
	}

	log.Info(app.service.Stats().Fields(), "Final stats")

	if err := app.service.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close exact store: %w", err))
	}
	if len(errs) == 0 {
		log.Info(nil, "Graceful shutdown completed")
	}
	return errors.Join(errs...)
}

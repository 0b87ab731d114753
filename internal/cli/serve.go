package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kleypas/netplot/internal/server"
	"github.com/kleypas/netplot/pkg/cache"
	"github.com/kleypas/netplot/pkg/pipeline"
	"github.com/kleypas/netplot/pkg/store"
)

// shutdownTimeout bounds how long in-flight requests may run after SIGTERM.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the netplot HTTP API",
		Long: `Run the netplot HTTP API.

The server exposes synthesis under /api/v1/synthesize, snapshot CRUD under
/api/v1/snapshots, health under /healthz, and Prometheus metrics under
/metrics.

By default results are cached on disk and snapshots live in memory. Set
--redis or redis_url in the config file to cache in Redis; set --mongo or
mongo_uri to persist snapshots in MongoDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.ListenAddr
			}
			if addr == "" {
				addr = defaultListenAddr
			}
			if redisURL == "" {
				redisURL = c.Config.RedisURL
			}
			if mongoURI == "" {
				mongoURI = c.Config.MongoURI
			}
			return c.runServe(cmd.Context(), addr, redisURL, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for the result cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for the snapshot store")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}

// runServe wires the cache, store, and metrics together and serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, addr, redisURL, mongoURI string, noCache bool) error {
	backend, err := c.serveCache(ctx, redisURL, noCache)
	if err != nil {
		return err
	}

	snapshots, closeStore, err := c.serveStore(ctx, mongoURI)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := server.NewMetrics()
	metrics.Install()

	runner := pipeline.NewRunner(backend, nil, c.Logger)
	defer runner.Close()

	srv := server.New(server.Config{
		Runner:  runner,
		Store:   snapshots,
		Logger:  c.Logger,
		Metrics: metrics,
	})

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serveCache picks the cache backend: null, Redis, or the local file cache.
func (c *CLI) serveCache(ctx context.Context, redisURL string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL != "" {
		backend, err := cache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("caching in redis")
		return backend, nil
	}
	return c.newCache(false)
}

// serveStore picks the snapshot store and returns its cleanup func.
func (c *CLI) serveStore(ctx context.Context, mongoURI string) (store.Store, func(), error) {
	if mongoURI == "" {
		return store.NewMemoryStore(), func() {}, nil
	}
	mongo, err := store.NewMongoStore(ctx, mongoURI, "netplot")
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	c.Logger.Info("storing snapshots in mongodb")
	closeStore := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			c.Logger.Warn("close mongodb", "error", err)
		}
	}
	return mongo, closeStore, nil
}

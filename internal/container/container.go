package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/config"
	"catalog/storefront/internal/proxy"
	"catalog/storefront/internal/service"
	"catalog/storefront/internal/state"
	"catalog/storefront/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type sweeper interface {
	Sweep() int
}

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Client  client.CatalogClient
	Catalog *service.CatalogService
	Browser *service.BrowserService
	Server  *web.Server

	sweepers []sweeper
	redis    *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if err := configureLogging(cfg.Log); err != nil {
		return nil, err
	}

	container := &Container{
		Config: cfg,
	}

	proxySupplier, err := proxy.NewSupplier(ctx, cfg.CatalogAPI.Proxies, cfg.CatalogAPI.BaseURL+client.ProductsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	container.Client = client.NewCatalogClient(cfg.CatalogAPI, proxySupplier)

	var (
		catalogViews state.Store[state.CatalogView]
		browserViews state.Store[state.BrowserView]
	)

	switch cfg.Views.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		log.Info("✅ Connected to Redis successfully")

		container.redis = rdb
		catalogViews = state.NewRedisStore[state.CatalogView](rdb, cfg.Redis.KeyPrefix, "catalog", cfg.Views.TTLDuration())
		browserViews = state.NewRedisStore[state.BrowserView](rdb, cfg.Redis.KeyPrefix, "details", cfg.Views.TTLDuration())
	default:
		memCatalog := state.NewMemoryStore[state.CatalogView](cfg.Views.TTLDuration())
		memBrowser := state.NewMemoryStore[state.BrowserView](cfg.Views.TTLDuration())
		container.sweepers = []sweeper{memCatalog, memBrowser}
		catalogViews, browserViews = memCatalog, memBrowser
	}

	// A selection may walk several detail pages before the in-flight guard expires
	detailsTimeout := cfg.CatalogAPI.TimeoutDuration() * time.Duration(cfg.CatalogAPI.DetailScanPages+1)

	container.Catalog = service.NewCatalogService(container.Client, catalogViews, cfg.CatalogAPI.DetailScanPages, detailsTimeout)
	container.Browser = service.NewBrowserService(container.Client, browserViews)

	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := web.NewServer(container.Catalog, container.Browser, cfg.Views.PageWindow)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize web server: %w", err)
	}
	container.Server = server

	return container, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down gracefully
func (c *Container) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              c.Config.Server.Addr(),
		Handler:           c.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🚀 Listening on http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Config.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		log.Info("Shutting down http server...")
		return httpServer.Shutdown(shutdownCtx)
	})

	if interval := c.Config.Views.SweepDuration(); len(c.sweepers) > 0 && interval > 0 {
		g.Go(func() error {
			c.sweepLoop(ctx, interval)
			return nil
		})
	}

	return g.Wait()
}

func (c *Container) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, s := range c.sweepers {
				removed += s.Sweep()
			}
			if removed > 0 {
				log.Debugf("🧹 Swept %d expired views", removed)
			}
		}
	}
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.Client != nil {
		if err := c.Client.Close(); err != nil {
			log.Warnf("Failed to close catalog client: %v", err)
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}

func configureLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	return nil
}

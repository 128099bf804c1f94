package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/adapter"
	"github.com/kapu/liver-streams-go/internal/api"
	"github.com/kapu/liver-streams-go/internal/config"
	"github.com/kapu/liver-streams-go/internal/event"
	"github.com/kapu/liver-streams-go/internal/service/aggregator"
	"github.com/kapu/liver-streams-go/internal/service/bookmark"
	"github.com/kapu/liver-streams-go/internal/service/cache"
	"github.com/kapu/liver-streams-go/internal/service/database"
	"github.com/kapu/liver-streams-go/internal/service/newarrival"
	"github.com/kapu/liver-streams-go/internal/service/talentfilter"
	"github.com/kapu/liver-streams-go/internal/source"
	"github.com/kapu/liver-streams-go/internal/util"
)

// Container bundles the assembled services shared by the binaries.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Location   *time.Location
	Registry   *prometheus.Registry
	Aggregator *aggregator.Aggregator
	Filters    *talentfilter.Service
	Bookmarks  *bookmark.Service
	Formatter  *adapter.ScheduleFormatter
	Router     *gin.Engine

	closers []func()
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// userStore is what the per-user services need from the cache layer.
type userStore interface {
	bookmark.HashStore
	talentfilter.SetStore
	aggregator.SnapshotStore
}

// Build assembles every service. Redis and PostgreSQL are optional: without
// Redis, user state lives in memory; without PostgreSQL, nijisanji names come
// from the liver file.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	loc := util.LoadLocation(cfg.Refresh.Timezone)

	// Cache
	var (
		store    userStore = cache.NewMemoryStore()
		cacheSvc *cache.CacheService
	)
	if cfg.Redis.Enabled {
		svc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, keeping user state in memory", zap.Error(cacheErr))
		} else {
			cacheSvc = svc
			store = svc
			closers = append(closers, func() {
				_ = svc.Close()
			})
		}
	}

	// Liver directory
	var (
		directory   source.LiverDirectory = source.NewFileLiverDirectory(cfg.Sources.LiverFile)
		postgresSvc *database.PostgresService
	)
	if cfg.Postgres.Enabled {
		svc, dbErr := database.NewPostgresService(cfg.Postgres.DSN(), logger)
		if dbErr != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", dbErr)
		}
		postgresSvc = svc
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})

		repo := database.NewLiverRepository(postgresSvc, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare livers table: %w", err)
		}
		directory = repo
	}
	if cacheSvc != nil {
		directory = source.NewCachedLiverDirectory(directory, cacheSvc, logger)
	}

	sources := buildSources(cfg, directory, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	agg := aggregator.New(sources, store, newarrival.NewTracker(0), registry, logger)
	filters := talentfilter.NewService(store, logger)
	bookmarks := bookmark.NewService(store, loc, logger)

	gin.SetMode(cfg.Server.GinMode)
	handler := api.NewHandler(agg, filters, bookmarks, loc, logger)
	if cacheSvc != nil {
		handler.AddHealthCheck("redis", cacheSvc)
	}
	if postgresSvc != nil {
		handler.AddHealthCheck("postgres", postgresSvc)
	}
	for _, src := range sources {
		if r, ok := src.(api.CircuitReporter); ok {
			handler.AddCircuit(src.Affiliation().String(), r)
		}
	}
	router := api.NewRouter(handler, registry, logger)

	logger.Info("Services assembled",
		zap.Int("sources", len(sources)),
		zap.Bool("redis", cacheSvc != nil),
		zap.Bool("postgres", cfg.Postgres.Enabled),
		zap.String("timezone", loc.String()))

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Location:   loc,
		Registry:   registry,
		Aggregator: agg,
		Filters:    filters,
		Bookmarks:  bookmarks,
		Formatter:  adapter.NewScheduleFormatter(loc),
		Router:     router,
		closers:    closers,
	}, nil
}

func buildSources(cfg *config.Config, directory source.LiverDirectory, logger *zap.Logger) []source.EventSource {
	client := &http.Client{Timeout: cfg.Sources.RequestTimeout}
	normalizer := event.Default()

	var sources []source.EventSource
	if cfg.SourceEnabled("hololive") {
		var fallback source.EventSource
		if cfg.Sources.EnableScraper {
			fallback = source.NewHololiveScraper(client, cfg.Sources.HololiveScheduleURL, normalizer, logger)
		}
		sources = append(sources, source.NewHololiveSource(client, cfg.Sources.HololiveAPIURL, normalizer, fallback, logger))
	}
	if cfg.SourceEnabled("nijisanji") {
		icons := source.NewIconChain(cfg.Sources.DefaultIcon, loadIcons(cfg, logger))
		sources = append(sources, source.NewNijisanjiSource(client, cfg.Sources.NijisanjiAPIBase, directory, icons, normalizer, logger))
	}
	return sources
}

// loadIcons returns nil when no icon file is configured or it cannot be read.
// The chain then falls back to directory images and the default icon.
func loadIcons(cfg *config.Config, logger *zap.Logger) source.IconProvider {
	if cfg.Sources.IconFile == "" {
		return nil
	}
	icons, err := source.LoadIconFile(cfg.Sources.IconFile, cfg.Sources.IconBaseURL)
	if err != nil {
		logger.Warn("Icon file unavailable, using directory images",
			zap.String("path", cfg.Sources.IconFile),
			zap.Error(err))
		return nil
	}
	return icons
}

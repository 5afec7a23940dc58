package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/media-catalog/internal/collections"
	"github.com/example/media-catalog/internal/friends"
	"github.com/example/media-catalog/internal/handlers"
	"github.com/example/media-catalog/internal/platform/analytics"
	"github.com/example/media-catalog/internal/platform/auth"
	"github.com/example/media-catalog/internal/platform/cache"
	"github.com/example/media-catalog/internal/platform/config"
	"github.com/example/media-catalog/internal/platform/db"
	"github.com/example/media-catalog/internal/platform/httpserver"
	"github.com/example/media-catalog/internal/platform/logging"
	"github.com/example/media-catalog/internal/platform/natsconn"
	"github.com/example/media-catalog/internal/platform/run"
	"github.com/example/media-catalog/internal/progress"
	"github.com/example/media-catalog/internal/recent"
	"github.com/example/media-catalog/internal/reviews"
	"github.com/example/media-catalog/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Postgres is optional: without DATABASE_URL every store runs in memory,
	// which is enough for local development against the metadata service.
	var pool *pgxpool.Pool
	if strings.TrimSpace(os.Getenv("DATABASE_URL")) != "" {
		pool, err = db.Open(ctx)
		if err != nil {
			log.Error("open postgres", zap.Error(err))
			run.Exit(1)
		}
		defer pool.Close()
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// NATS is optional too: without it, writes are synchronous and caches
	// only see same-process invalidations.
	var nc *nats.Conn
	var js nats.JetStreamContext
	if strings.TrimSpace(os.Getenv("NATS_URL")) != "" {
		nc, err = natsconn.Connect(natsconn.Options{})
		if err != nil {
			log.Error("connect nats", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Close()
		js, err = nc.JetStream()
		if err != nil {
			log.Error("jetstream", zap.Error(err))
			run.Exit(1)
		}
	}

	volatileCache, referenceCache, readyCache := buildCaches(cfg, nc, log)

	events := analytics.New(js, log)
	tmdbClient := tmdb.NewClient(tmdb.Options{
		APIKey:   cfg.TMDB.APIKey,
		BaseURL:  cfg.TMDB.BaseURL,
		Language: cfg.TMDB.Language,
	})

	var (
		progressStore   progress.Store
		collectionStore collections.Store
		reviewStore     reviews.Store
		friendStore     friends.Store
	)
	if pool != nil {
		progressStore = progress.NewPostgresStore(pool)
		collectionStore = collections.NewPostgresStore(pool)
		reviewStore = reviews.NewPostgresStore(pool)
		friendStore = friends.NewPostgresStore(pool)
	} else {
		progressStore = progress.NewMemoryStore()
		collectionStore = collections.NewMemoryStore()
		reviewStore = reviews.NewMemoryStore()
		friendStore = friends.NewMemoryStore()
	}

	invalidator := cache.NewNATSInvalidator(nc, cache.InvalidationSubject, log)
	progressSvc := progress.NewService(progressStore, events, invalidator, log)

	aggregator := recent.NewAggregator(progressSvc, tmdbClient, volatileCache, log, recent.Options{
		FactLimit: cfg.RecentFactLimit,
		MaxShows:  cfg.RecentMaxShows,
	})

	// Async progress writes need both the stream and the relational store.
	var progressPublisher *progress.EventPublisher
	if js != nil && pool != nil {
		progressPublisher = progress.NewEventPublisher(js)
		if err := progress.StartConsumer(ctx, nc, pool, progressSvc, progress.ConsumerOptions{}, log); err != nil {
			log.Error("start progress consumer", zap.Error(err))
			run.Exit(1)
		}
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: readiness(pool, readyCache)})

	handlers.Mount(r, handlers.Deps{
		Catalog: handlers.CatalogDeps{
			Client:      tmdbClient,
			Volatile:    volatileCache,
			Reference:   referenceCache,
			Events:      events,
			PageCeiling: cfg.ListPageCeiling,
		},
		Progress: handlers.ProgressDeps{
			Service:    progressSvc,
			Publisher:  progressPublisher,
			Aggregator: aggregator,
		},
		Collections: collectionStore,
		Reviews:     handlers.ReviewDeps{Store: reviewStore, Events: events},
		Friends:     handlers.FriendDeps{Store: friendStore, Events: events},
		Verifier:    auth.JWTVerifier{Secret: cfg.JWTSecret},
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// buildCaches selects Redis when configured, in-memory otherwise. The third
// return value pings Redis for readiness and is nil for the in-memory tiers.
func buildCaches(cfg config.AppConfig, nc *nats.Conn, log *zap.Logger) (volatile, reference cache.Cache, ready func(context.Context) error) {
	if cfg.Cache.RedisURL == "" {
		return cache.NewMemory(cfg.Cache.VolatileTTL, nc, cache.InvalidationSubject),
			cache.NewMemory(cfg.Cache.ReferenceTTL, nc, cache.InvalidationSubject),
			nil
	}

	v, err := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.VolatileTTL, nc, cache.InvalidationSubject)
	if err != nil {
		log.Error("connect redis", zap.Error(err))
		run.Exit(1)
	}
	ref, err := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.ReferenceTTL, nc, cache.InvalidationSubject)
	if err != nil {
		log.Error("connect redis", zap.Error(err))
		run.Exit(1)
	}
	return v, ref, v.Ping
}

func readiness(pool *pgxpool.Pool, cachePing func(context.Context) error) func() error {
	return func() error {
		ctx := context.Background()
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}
		if cachePing != nil {
			return cachePing(ctx)
		}
		return nil
	}
}

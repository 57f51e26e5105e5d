package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/folioworks/portfolio/internal/config"
	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/infra/database"
	"github.com/folioworks/portfolio/internal/infra/repository"
	"github.com/folioworks/portfolio/internal/ratelimit"
	"github.com/folioworks/portfolio/internal/token"
	"github.com/folioworks/portfolio/internal/usecase"
)

// openRepository picks the content store: postgres, then sqlite, then the
// read-only export file.
func openRepository(conf config.Config) (usecase.ContentRepository, error) {
	switch {
	case conf.Server.PostgresDsn != "":
		db, err := database.NewPostgres(conf.Server.PostgresDsn)
		if err != nil {
			return nil, err
		}
		slog.Info("using postgres content store", slog.String("module", "main"))
		return repository.NewContentRepository(db), nil
	case conf.Server.SqlitePath != "":
		db, err := database.NewSqlite(conf.Server.SqlitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite content store", slog.String("path", conf.Server.SqlitePath), slog.String("module", "main"))
		return repository.NewContentRepository(db), nil
	case conf.Site.ContentFile != "":
		slog.Info("using read-only content file", slog.String("path", conf.Site.ContentFile), slog.String("module", "main"))
		return repository.NewFileRepository(conf.Site.ContentFile), nil
	}
	return nil, errors.New("no content store configured: set POSTGRES_DSN, SQLITE_PATH or CONTENT_FILE")
}

func newCodec(conf config.Config) (*token.Codec, error) {
	secret := conf.Site.SessionSecret
	if secret == "" {
		if !conf.Site.AllowEphemeralSecret {
			return nil, errors.New("SESSION_SECRET is required")
		}
		generated, err := token.GenerateSecret()
		if err != nil {
			return nil, err
		}
		slog.Warn(
			"SESSION_SECRET is not set, sessions will not survive a restart",
			slog.String("module", "main"),
		)
		secret = generated
	}

	return token.NewCodec(
		secret,
		token.WithMaxAge(domain.ScopeSite, domain.SiteSessionMaxAge),
		token.WithMaxAge(domain.ScopeAdmin, domain.AdminSessionMaxAge),
	)
}

func newLimiter(ctx context.Context, conf config.Config, rdb *redis.Client) (*ratelimit.Limiter, error) {
	window, err := conf.RateLimitWindow()
	if err != nil {
		return nil, err
	}

	var store ratelimit.Store
	switch conf.RateLimit.Store {
	case config.StoreRedis:
		store = ratelimit.NewRedisStore(rdb)
	case config.StoreMemcached:
		mc := database.NewMemcached(conf.Server.MemcachedAddr)
		err := database.PingMemcached(mc)
		if err != nil {
			return nil, err
		}
		store = ratelimit.NewMemcachedStore(mc)
	default:
		store = ratelimit.NewMemoryStore()
	}

	slog.InfoContext(
		ctx, "rate limiter ready",
		slog.String("store", conf.RateLimit.Store),
		slog.Int("maxAttempts", conf.RateLimit.MaxAttempts),
		slog.String("window", window.String()),
		slog.String("module", "main"),
	)

	return ratelimit.NewLimiter(
		store,
		ratelimit.WithMaxAttempts(conf.RateLimit.MaxAttempts),
		ratelimit.WithWindow(window),
	), nil
}

// newRedis returns nil when no redis address is configured.
func newRedis(ctx context.Context, conf config.Config) (*redis.Client, error) {
	if conf.Server.RedisAddr == "" {
		return nil, nil
	}
	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	err := database.PingRedis(ctx, rdb)
	if err != nil {
		return nil, err
	}
	return rdb, nil
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create trace exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "portfolio"),
		)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

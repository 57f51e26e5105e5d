package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/folioworks/portfolio/internal/infra/repository"
	"github.com/folioworks/portfolio/internal/present/rest"
	authmw "github.com/folioworks/portfolio/internal/present/rest/middleware"
	"github.com/folioworks/portfolio/internal/service"
	"github.com/folioworks/portfolio/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	codec, err := newCodec(conf)
	if err != nil {
		return err
	}

	rdb, err := newRedis(ctx, conf)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	limiter, err := newLimiter(ctx, conf, rdb)
	if err != nil {
		return err
	}

	repo, err := openRepository(conf)
	if err != nil {
		return err
	}

	var sig service.Signal
	if rdb != nil {
		sig = service.NewSignalService(rdb)
	} else {
		sig = service.NewLocalSignal()
	}

	auth := service.NewAuthService(conf.Domain(), codec, limiter)
	content := usecase.NewContentUsecase(repo, sig)
	defer content.Close()

	err = content.Init(ctx)
	if err != nil {
		return errors.Wrap(err, "prepare content store")
	}

	var seed usecase.ContentSource
	if conf.Site.ContentFile != "" {
		seed = repository.NewFileRepository(conf.Site.ContentFile)
	}

	if conf.Site.SitePassword == "" {
		slog.Warn("SITE_PASSWORD is not set, the site is public", slog.String("module", "main"))
	}
	if conf.Site.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD is not set, admin login is disabled", slog.String("module", "main"))
	}

	proxies, err := conf.TrustedProxyRanges()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = rest.NewIPExtractor(proxies)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("portfolio"))
	}

	handler := rest.NewHandler(conf.Domain(), auth, content, seed, sig)
	handler.RegisterRoutes(e, authmw.NewAuthMiddleware(auth))

	go func() {
		err := e.Start(conf.Server.ListenAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()), slog.String("module", "main"))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", slog.String("module", "main"))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return e.Shutdown(shutdownCtx)
}

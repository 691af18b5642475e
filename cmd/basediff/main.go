package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/basediff/basediff/internal/config"
	"github.com/basediff/basediff/internal/infra/database"
	"github.com/basediff/basediff/internal/infra/gitlog"
	"github.com/basediff/basediff/internal/infra/manifest"
	"github.com/basediff/basediff/internal/infra/repository"
	"github.com/basediff/basediff/internal/present/rest"
	"github.com/basediff/basediff/internal/service"
	"github.com/basediff/basediff/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		cleanup, err := setupTracer(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Storage.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: conf.Server.RedisAddr,
		DB:   conf.Server.RedisDB,
	})

	var mc *memcache.Client
	if conf.Server.MemcachedAddr != "" {
		mc = memcache.New(conf.Server.MemcachedAddr)
	}

	commitRepo := repository.NewCommitRepository(db, conf.Storage.BatchCeiling)
	projectRepo := repository.NewProjectRepository(db, conf.Storage.BatchCeiling)
	labelRepo := repository.NewLabelRepository(db, conf.Storage.BatchCeiling)

	progress := service.NewProgressService(rdb)
	stats := service.NewStatsCache(mc)

	classifyUC := usecase.NewClassifyUsecase(commitRepo, progress)
	scanUC := usecase.NewScanUsecase(
		manifest.NewReader(),
		gitlog.NewReader(),
		commitRepo,
		projectRepo,
		classifyUC,
		progress,
	)
	queryUC := usecase.NewQueryUsecase(commitRepo, labelRepo, conf.Query.DefaultPageSize, conf.Query.MaxPageSize)
	labelUC := usecase.NewLabelUsecase(labelRepo)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("basediff"))
	}

	handler := rest.NewHandler(scanUC, queryUC, labelUC, progress, stats)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTracer(endpoint string) (func(), error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to shut down tracer", slog.String("error", err.Error()))
		}
	}, nil
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/promptdeck/promptdeck-backend/api/routes"
	"github.com/promptdeck/promptdeck-backend/internal/catalog"
	"github.com/promptdeck/promptdeck-backend/internal/entitlements"
	"github.com/promptdeck/promptdeck-backend/internal/optimizer"
	"github.com/promptdeck/promptdeck-backend/internal/purchases"
	"github.com/promptdeck/promptdeck-backend/internal/subscriptions"
	"github.com/promptdeck/promptdeck-backend/internal/users"
	"github.com/promptdeck/promptdeck-backend/pkg/config"
	"github.com/promptdeck/promptdeck-backend/pkg/db"
	"github.com/promptdeck/promptdeck-backend/pkg/llm"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
	"github.com/promptdeck/promptdeck-backend/pkg/metrics"
	"github.com/promptdeck/promptdeck-backend/pkg/migrate"
	"github.com/promptdeck/promptdeck-backend/pkg/outbox"
	"github.com/promptdeck/promptdeck-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	decisionMetrics := metrics.NewDecisionMetrics(registry)
	optimizerMetrics := metrics.NewOptimizerMetrics(registry)

	llmClient, err := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create llm client", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	purchasesSvc, err := purchases.NewService(
		purchases.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
		decisionMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchases service", err)
		os.Exit(1)
	}

	subscriptionsSvc, err := subscriptions.NewService(
		subscriptions.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
		cfg.Pricing,
		decisionMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	entitlementsSvc, err := entitlements.NewService(entitlements.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlements service", err)
		os.Exit(1)
	}

	optimizerSvc, err := optimizer.NewService(
		optimizer.NewRepository(dbClient.DB()),
		llmClient,
		redisClient,
		cfg.Optimizer,
		optimizerMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create optimizer service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Users:         users.NewRepository(dbClient.DB()),
			Catalog:       catalogSvc,
			Entitlements:  entitlementsSvc,
			Purchases:     purchasesSvc,
			Subscriptions: subscriptionsSvc,
			Optimizer:     optimizerSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

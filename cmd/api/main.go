package main

import (
	"context"
	"net/http"
	"time"

	"github.com/georgemunganga/printa-till/internal/common/config"
	"github.com/georgemunganga/printa-till/internal/common/db"
	"github.com/georgemunganga/printa-till/internal/common/logger"
	"github.com/georgemunganga/printa-till/internal/common/mq"
	"github.com/georgemunganga/printa-till/internal/modules/auth"
	"github.com/georgemunganga/printa-till/internal/modules/catalog"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
	"github.com/georgemunganga/printa-till/internal/modules/pos"
	"github.com/georgemunganga/printa-till/internal/modules/tables"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// ── Draft store ─────────────────────────────────────────
	repo := pos.NewMemoryRepository()
	if cfg.DB.URL != "" {
		conn, err := db.Open(ctx, cfg.DB.URL)
		if err != nil {
			log.Fatal("connect database", zap.Error(err))
		}
		defer conn.Close()
		if err := pos.Migrate(ctx, conn); err != nil {
			log.Fatal("migrate draft store", zap.Error(err))
		}
		repo = pos.NewPostgresRepository(conn)
		log.Info("draft store: postgres")
	} else {
		log.Warn("DATABASE_URL not set, drafts are kept in memory")
	}

	// ── Events ──────────────────────────────────────────────
	var events mq.Publisher = mq.Nop{}
	if cfg.MQ.URL != "" {
		client, err := mq.Dial(cfg.MQ.URL)
		if err != nil {
			log.Fatal("connect rabbitmq", zap.Error(err))
		}
		defer client.Close()
		events = client
	}

	// ── Order service ───────────────────────────────────────
	catalogUnit, err := money.ParseUnit(cfg.OrderAPI.CatalogPriceUnit)
	if err != nil {
		log.Fatal("CATALOG_PRICE_UNIT", zap.Error(err))
	}
	heldUnit, err := money.ParseUnit(cfg.OrderAPI.HeldPriceUnit)
	if err != nil {
		log.Fatal("HELD_PRICE_UNIT", zap.Error(err))
	}
	remote := orderapi.NewClient(orderapi.Options{
		BaseURL:          cfg.OrderAPI.BaseURL,
		Token:            cfg.OrderAPI.Token,
		Timeout:          cfg.OrderAPI.Timeout,
		CatalogPriceUnit: catalogUnit,
		HeldPriceUnit:    heldUnit,
	}, log)

	tracker := tables.NewTracker(remote, log)
	registry := pos.NewRegistry(pos.Deps{
		Remote:  remote,
		Tables:  tracker,
		Repo:    repo,
		Events:  events,
		Log:     log,
		TaxRate: cfg.Pricing.TaxRate,
		StoreID: cfg.App.DefaultStoreID,
	})

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	router.Group(func(r chi.Router) {
		if cfg.Auth.JWTSecret != "" {
			r.Use(auth.Middleware(auth.NewService(cfg.Auth.JWTSecret)))
		} else {
			log.Warn("JWT_SECRET not set, till endpoints are unauthenticated")
		}
		catalog.NewHandler(catalog.NewService(remote, cfg.App.DefaultStoreID)).RegisterRoutes(r)
		pos.NewHandler(registry).RegisterRoutes(r)
	})

	// ── Start Server ─────────────────────────────────────────
	log.Info("printa till starting", zap.String("port", cfg.App.Port), zap.String("order_api", cfg.OrderAPI.BaseURL))
	if err := http.ListenAndServe(":"+cfg.App.Port, router); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages; every backend (Redis, Postgres, Kafka) is optional and falls back
// to in-memory implementations when unconfigured.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"minty/internal/audit"
	"minty/internal/cache"
	erasurehandler "minty/internal/erasure/handler"
	erasuremetrics "minty/internal/erasure/metrics"
	"minty/internal/erasure/service"
	"minty/internal/erasure/store/history"
	"minty/internal/erasure/store/record"
	"minty/internal/export"
	exporthandler "minty/internal/export/handler"
	"minty/internal/identity"
	"minty/internal/identity/store/session"
	userstore "minty/internal/identity/store/user"
	"minty/internal/ledger"
	"minty/internal/platform/config"
	"minty/internal/platform/httpserver"
	"minty/internal/platform/logger"
	"minty/internal/platform/metrics"
	platformredis "minty/internal/platform/redis"
	httptransport "minty/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	// Namespace: Redis when configured, memory otherwise. Sessions and
	// preference records share it so erasure verification can scan one place.
	var (
		ns          cache.Namespace
		redisClient *platformredis.Client
	)
	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		redisClient = client
		ns = cache.NewRedisNamespace(client.Client)
		defer func() { _ = redisClient.Close() }()
	} else {
		ns = cache.NewMemoryNamespace()
	}

	// Audit pipeline: always the in-process store, plus Kafka when brokers
	// are configured.
	auditOpts := []audit.Option{}
	var kafkaPublisher *audit.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit sink unavailable", "error", err)
			os.Exit(1)
		}
		kafkaPublisher = publisher
		auditOpts = append(auditOpts, audit.WithKafka(publisher))
		defer kafkaPublisher.Close()
	}
	auditPublisher := audit.NewPublisher(audit.NewMemoryStore(), log, auditOpts...)

	// Financial domains. The first five are plain stores; preferences live in
	// the shared namespace.
	stores := map[ledger.Domain]ledger.Store{
		ledger.DomainTransactions: ledger.NewMemoryStore(ledger.DomainTransactions),
		ledger.DomainAccounts:     ledger.NewMemoryStore(ledger.DomainAccounts),
		ledger.DomainGoals:        ledger.NewMemoryStore(ledger.DomainGoals),
		ledger.DomainInvestments:  ledger.NewMemoryStore(ledger.DomainInvestments),
		ledger.DomainBudgets:      ledger.NewMemoryStore(ledger.DomainBudgets),
		ledger.DomainPreferences:  cache.NewPreferencesStore(ns),
	}
	var (
		adapters []service.DomainAdapter
		sources  []export.DomainSource
	)
	for _, domain := range ledger.Domains() {
		adapter := ledger.NewAdapter(domain, stores[domain])
		adapters = append(adapters, adapter)
		sources = append(sources, adapter)
	}

	identityService := identity.New(
		userstore.New(),
		session.New(ns),
		identity.WithLogger(log),
		identity.WithAuditPublisher(auditPublisher),
		identity.WithRecentAuthWindow(cfg.RecentAuthWindow),
	)
	tokenService := identity.NewTokenService(cfg.JWTSigningKey, time.Hour)

	exportService := export.New(sources, export.WithLogger(log))

	// Durable deletion records: Postgres when configured, memory otherwise.
	var records service.RecordStore
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		pg := record.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		records = pg
	} else {
		records = record.NewMemory()
	}

	erasureService := service.New(
		adapters,
		exportService,
		identityService,
		ns,
		cache.NewPurger(ns, cfg.CachePartitions, log),
		records,
		history.New(),
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(erasuremetrics.New()),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   metrics.New(),
		Validator: tokenService,
		Handlers: []httptransport.Registrar{
			erasurehandler.New(erasureService, log),
			exporthandler.New(exportService, log),
		},
		Health: healthChecker(redisClient),
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting minty", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// healthChecker returns the Redis health probe when Redis is configured; a
// nil checker reads as always healthy.
func healthChecker(client *platformredis.Client) httptransport.HealthChecker {
	if client == nil {
		return nil
	}
	return client
}

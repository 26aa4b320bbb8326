package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	httpadapter "domainsentry/internal/adapters/http"
	pg "domainsentry/internal/adapters/postgres"
	"domainsentry/internal/config"
	"domainsentry/internal/risk"
	domainsvc "domainsentry/internal/services/domains"
	feedsvc "domainsentry/internal/services/feeds"
	risksvc "domainsentry/internal/services/riskanalysis"
	"domainsentry/internal/workers/feedrunner"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "server",
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config", "err", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", "err", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("db migrate", "err", err)
	}

	engineCfg, err := risk.LoadEngineConfig(cfg.RiskConfigPath)
	if err != nil {
		logger.Fatal("risk config", "path", cfg.RiskConfigPath, "err", err)
	}
	engine := risk.NewEngine(engineCfg)

	domainStore := pg.NewDomainStore(db)
	newsStore := pg.NewNewsStore(db)

	domains := domainsvc.New(domainStore, engine)
	riskSvc := risksvc.New(domainStore, engine)
	feeds := feedsvc.New(newsStore, nil, logger.WithPrefix("feeds"), cfg.FeedURLs)

	srv := httpadapter.New(domains, riskSvc, feeds, db.Pool, logger.WithPrefix("http"))
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	go feedrunner.Run(ctx, feeds, cfg.FeedRefreshInterval, logger.WithPrefix("feedrunner"))

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig)
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		logger.Fatal("server", "err", err)
	}
}

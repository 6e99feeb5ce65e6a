package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"crowdfund/internal/events"
	"crowdfund/internal/routes"
	"crowdfund/pkg/config"
	"crowdfund/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.InitLogger(cfg.LogLevel, false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database (optional, the ledger stays in memory without it)
	if cfg.Database.Enabled() {
		config.InitDB(cfg.Database)
		if cfg.RunMigrations {
			config.ExecuteMigrations(cfg.MigrationsDir)
		}
	} else {
		log.Warn("DB_HOST not set, ledger state will not survive a restart")
	}

	proc, err := config.InitLedger(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("Failed to initialize ledger: ", err)
	}

	// Initialize RabbitMQ (optional)
	var publisher events.Publisher
	if cfg.Broker.Enabled() {
		config.InitRabbitMQ(cfg.Broker)
		defer config.RabbitMQ.Close()

		p, err := config.NewPublisher()
		if err != nil {
			log.Fatal("Failed to create publisher: ", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Info("RabbitMQ not configured, events are only streamed over websocket")
	}

	hub := events.NewHub(routes.OriginChecker(cfg.AllowedOrigins))
	dispatcher := events.NewDispatcher(proc.ID(), hub, publisher, config.FundraiserEventsQueue)
	config.Ledger.AddListener(dispatcher)
	go dispatcher.Run(ctx)

	if config.DB != nil {
		c, err := schedule.StartCampaignStat(config.DB, config.Ledger, proc.ID())
		if err != nil {
			log.Fatal("Failed to start schedule: ", err)
		}
		defer c.Stop()
	}

	// Set up router
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.SetupRouter(cfg, hub),
	}

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"program": proc.ID().String(),
			"faucet":  cfg.Faucet.Enabled,
		}).Info("crowdfund api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}

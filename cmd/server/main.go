package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/lendnet/backend/internal/app"
	"github.com/OFFIS-RIT/lendnet/backend/internal/config"
	"github.com/OFFIS-RIT/lendnet/backend/internal/queue"
	"github.com/OFFIS-RIT/lendnet/backend/internal/server"
	mid "github.com/OFFIS-RIT/lendnet/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/lendnet/backend/internal/storage"
	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug: util.GetEnvBool("DEBUG", false),
		}))
		logger.Fatal("Invalid configuration", "err", err)
	}
	app.InitLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := storage.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
	}

	deps, err := app.Wire(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize", "err", err)
	}
	defer deps.Close(context.Background())

	a := &mid.App{
		Persons:      deps.Persons,
		Settlement:   deps.Settlement,
		Ledger:       deps.Ledger,
		Graph:        deps.Graph,
		MasterAPIKey: cfg.MasterAPIKey,
	}

	if cfg.RabbitMQ.Enabled() {
		conn, err := queue.Init(ctx, cfg.RabbitMQ.URL(), 5)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.SetupQueues(ch, queue.Queues); err != nil {
			logger.Fatal("Failed to declare queues", "err", err)
		}
		a.Queue = ch
	} else {
		logger.Info("RabbitMQ not configured, async runs disabled")
	}

	if err := server.Run(ctx, server.New(a), cfg.Port); err != nil {
		logger.Fatal("Server stopped", "err", err)
	}
	logger.Info("Shutdown complete")
}

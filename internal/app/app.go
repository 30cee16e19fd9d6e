// Package app wires the stores and services shared by the API server and
// the worker.
package app

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/lendnet/backend/internal/config"
	"github.com/OFFIS-RIT/lendnet/backend/internal/person"
	"github.com/OFFIS-RIT/lendnet/backend/internal/settlement"
	"github.com/OFFIS-RIT/lendnet/backend/internal/storage"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/graph"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/loan"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger/console"
	ledger "github.com/OFFIS-RIT/lendnet/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps holds every long-lived collaborator of a process.
type Deps struct {
	Config *config.Config

	Pool       *pgxpool.Pool
	Graph      *graph.Client
	Ledger     *ledger.LedgerDBStorage
	Locks      *leaselock.Client
	Persons    *person.Service
	Settlement *settlement.Processor
}

// InitLogger installs the console logger configured by cfg.
func InitLogger(cfg *config.Config) {
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Format: cfg.LogFormat,
	}))
}

// Wire connects to both stores and builds the services. Close releases
// everything Wire opened.
func Wire(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{Config: cfg}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	d.Pool = pool

	graphClient, err := graph.NewClient(ctx, graph.NewClientParams{
		URI:            cfg.Graph.URI,
		User:           cfg.Graph.User,
		Password:       cfg.Graph.Password,
		Database:       cfg.Graph.Database,
		Limits:         cfg.GraphLimits(),
		ConnectRetries: cfg.Graph.ConnectRetries,
	})
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	d.Graph = graphClient
	if err := graphClient.EnsureSchema(ctx); err != nil {
		d.Close(ctx)
		return nil, err
	}

	d.Ledger = ledger.NewLedgerDBStorageWithConnection(pool)
	d.Locks = leaselock.New(pool)

	d.Persons, err = person.NewService(person.NewServiceParams{
		Ledger: d.Ledger,
		Graph:  graphClient,
		Locker: d.Locks,
	})
	if err != nil {
		d.Close(ctx)
		return nil, err
	}

	loanCfg, err := cfg.LoanConfig()
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	calc, err := loan.NewCalculator(loanCfg)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}

	params := settlement.NewProcessorParams{
		Ledger:        d.Ledger,
		Graph:         graphClient,
		Calculator:    calc,
		Locker:        d.Locks,
		BatchAccounts: cfg.Settlement.BatchAccounts,
		LoanChunk:     cfg.Settlement.LoanChunk,
	}
	if cfg.S3.Enabled() {
		s3Client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		params.Reports = storage.NewReportStore(s3Client, cfg.S3.Bucket)
		logger.Info("Settlement reports enabled", "bucket", cfg.S3.Bucket)
	}
	d.Settlement, err = settlement.NewProcessor(params)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}

	return d, nil
}

func (d *Deps) Close(ctx context.Context) {
	if d.Graph != nil {
		if err := d.Graph.Close(ctx); err != nil {
			logger.Warn("Failed to close graph client", "err", err)
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

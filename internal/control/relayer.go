package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/relayer/internal/core/config"
	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/core/worker"
	redisclient "github.com/vietddude/relayer/internal/infra/redis"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/infra/storage"
	"github.com/vietddude/relayer/internal/infra/storage/memory"
	"github.com/vietddude/relayer/internal/infra/storage/postgres"
	"github.com/vietddude/relayer/internal/sending/health"
	"github.com/vietddude/relayer/internal/sending/sender"
	"github.com/vietddude/relayer/internal/sending/signing"
)

// Relayer is the main application struct that manages the service lifecycle:
// RPC client, signing identity, receipt journal, submission queue worker,
// pruner, and the health server.
type Relayer struct {
	cfg          *config.AppConfig
	client       rpc.Client
	identity     *signing.LocalIdentity
	receipts     storage.ReceiptRepository
	db           *postgres.DB
	redisClient  *redisclient.Client
	queueWorker  *Worker
	pruner       *worker.Pruner
	healthServer *health.Server
	healthMon    *health.Monitor
	log          *slog.Logger
}

// NewRelayer creates a new Relayer instance with all dependencies initialized.
func NewRelayer(cfg *config.AppConfig) (*Relayer, error) {
	log := slog.Default()

	// 1. Signing identity
	identity, err := signing.LoadKeypair(cfg.Identity.KeypairPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	log.Info("Loaded signing identity", "pubkey", identity.PublicKey())

	// 2. RPC client
	client := rpc.NewHTTPClient(cfg.RPC)

	// 3. Receipt journal
	var receipts storage.ReceiptRepository
	var db *postgres.DB
	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		receipts = postgres.NewReceiptRepo(db)
		log.Info("Using PostgreSQL receipt journal")
	} else {
		receipts = memory.NewReceiptRepo()
		log.Info("Using in-memory receipt journal")
	}

	// 4. Redis queue + worker
	var redisClient *redisclient.Client
	var queueWorker *Worker
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, queue worker disabled", "error", err)
		} else {
			run := newBatchRunner(client, identity, cfg.Sender)
			queueWorker = NewWorker(WorkerConfig{
				PollInterval:  cfg.Worker.PollInterval,
				LockTTL:       cfg.Worker.LockTTL,
				CompletionTTL: cfg.Worker.CompletionTTL,
			}, redisClient, run, receipts)
			log.Info("Queue worker initialized")
		}
	}

	// 5. Health monitor + server
	var queueStats health.QueueStats
	if redisClient != nil {
		queueStats = redisClient
	}
	var pinger health.StoragePinger
	if db != nil {
		pinger = db
	}
	healthMon := health.NewMonitor(client, domain.Commitment(cfg.Sender.Commitment), queueStats, pinger)
	healthServer := health.NewServer(healthMon, cfg.Server.Port)

	// 6. Receipt pruner
	var pruner *worker.Pruner
	if cfg.Receipts.Retention > 0 {
		pruner = worker.NewPruner(cfg.Receipts.Retention, receipts, log)
	}

	return &Relayer{
		cfg:          cfg,
		client:       client,
		identity:     identity,
		receipts:     receipts,
		db:           db,
		redisClient:  redisClient,
		queueWorker:  queueWorker,
		pruner:       pruner,
		healthServer: healthServer,
		healthMon:    healthMon,
		log:          log,
	}, nil
}

// newBatchRunner returns a Runner that creates a fresh sender per batch.
func newBatchRunner(client rpc.Client, identity *signing.LocalIdentity, cfg config.SenderConfig) Runner {
	return func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
		senderCfg := sender.DefaultConfig()
		senderCfg.MaxSigningAttempts = cfg.MaxSigningAttempts
		senderCfg.AbortOnFailure = !cfg.ContinueOnFailure
		senderCfg.Commitment = domain.Commitment(cfg.Commitment)
		senderCfg.SubmitDelay = cfg.SubmitDelay
		return sender.New(client, identity, senderCfg).Send(ctx, sets)
	}
}

// Receipts exposes the receipt journal.
func (r *Relayer) Receipts() storage.ReceiptRepository {
	return r.receipts
}

// Start starts the relayer and all its components.
func (r *Relayer) Start(ctx context.Context) error {
	go func() {
		if err := r.healthServer.Start(); err != nil {
			r.log.Error("Health server failed", "error", err)
		}
	}()

	go r.healthMon.Start(ctx)

	if r.db != nil {
		r.db.StartMetricsCollector(ctx)
	}

	if r.queueWorker != nil {
		r.log.Info("Starting queue worker")
		go func() {
			if err := r.queueWorker.Run(ctx); err != nil {
				r.log.Error("Queue worker failed", "error", err)
			}
		}()
	}

	if r.pruner != nil {
		r.log.Info("Starting receipt pruner")
		go r.pruner.Start(ctx)
	}

	return nil
}

// Stop stops the relayer.
func (r *Relayer) Stop(ctx context.Context) error {
	r.log.Info("Stopping Relayer...")

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			r.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.log.Warn("Failed to close database", "error", err)
		}
	}

	return r.healthServer.Stop(ctx)
}

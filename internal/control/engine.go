// Package control wires the recovery engine together from configuration:
// audit storage backend, ledger, classifier, cascade executor and the
// optional replay queue.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/remedy/internal/audit"
	"github.com/vietddude/remedy/internal/core/config"
	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/infra/redis"
	"github.com/vietddude/remedy/internal/infra/storage"
	filestore "github.com/vietddude/remedy/internal/infra/storage/file"
	"github.com/vietddude/remedy/internal/infra/storage/memory"
	"github.com/vietddude/remedy/internal/infra/storage/postgres"
	"github.com/vietddude/remedy/internal/recovery/classifier"
	"github.com/vietddude/remedy/internal/recovery/executor"
	"github.com/vietddude/remedy/internal/recovery/metrics"
)

// Engine bundles the wired recovery components.
type Engine struct {
	Classifier *classifier.Classifier
	Executor   *executor.Executor
	Ledger     *audit.Ledger
	Queue      *redis.Client

	db  *postgres.DB
	log *slog.Logger
}

// NewEngine initializes storage per config and wires the engine. The
// collaborators come from the embedding application; pass a zero value to run
// classification and auditing only.
func NewEngine(cfg *config.AppConfig, collab executor.Collaborators) (*Engine, error) {
	log := slog.Default()

	var repo storage.AuditRepository
	var db *postgres.DB

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		repo = postgres.NewAuditRepo(db)
		log.Info("Using PostgreSQL audit storage")

	case config.BackendMemory:
		repo = memory.NewStore()
		log.Info("Using in-memory audit storage")

	default:
		store, err := filestore.NewStore(cfg.Storage.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to init file storage: %w", err)
		}
		repo = store
		log.Info("Using file audit storage", "root", cfg.Storage.Root)
	}

	ledger := audit.NewLedger(repo, cfg.Storage.Root, log)

	var queue *redis.Client
	if cfg.Redis.URL != "" {
		var err error
		queue, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, replay queue disabled", "error", err)
		}
	}

	return &Engine{
		Classifier: classifier.Default(),
		Executor:   executor.New(cfg.Recovery, ledger, collab, log),
		Ledger:     ledger,
		Queue:      queue,
		db:         db,
		log:        log,
	}, nil
}

// Recover classifies raw failure output and, when an error is detected, runs
// the full cascade. A nil result means no error was detected. Escalated
// results are pushed onto the replay queue when one is configured.
func (e *Engine) Recover(ctx context.Context, raw, source string, exitCode *int, rctx map[string]any) *domain.RecoveryResult {
	err := e.Classifier.Classify(raw, source, exitCode, rctx)
	if err == nil {
		return nil
	}
	metrics.ErrorsClassified.WithLabelValues(string(err.Category), string(err.Type)).Inc()

	result := e.Executor.AttemptRecovery(ctx, err, rctx)

	if result.EscalatedToHuman && e.Queue != nil {
		if qErr := e.Queue.PushUnresolved(ctx, result.SessionID, err); qErr != nil {
			e.log.Warn("Failed to queue unresolved error", "error", qErr)
		}
	}
	return result
}

// Close releases storage connections.
func (e *Engine) Close() error {
	if e.Queue != nil {
		if err := e.Queue.Close(); err != nil {
			return err
		}
	}
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// StartMetricsCollectors starts background gauges for the active backends.
func (e *Engine) StartMetricsCollectors(ctx context.Context) {
	if e.db != nil {
		e.db.StartMetricsCollector(ctx)
	}
}

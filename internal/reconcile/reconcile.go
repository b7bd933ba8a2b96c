package reconcile

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"favorites-reconciler/internal/reconcile/adapter/console"
	"favorites-reconciler/internal/reconcile/adapter/credentials"
	"favorites-reconciler/internal/reconcile/adapter/metrics"
	"favorites-reconciler/internal/reconcile/adapter/persistence"
	"favorites-reconciler/internal/reconcile/adapter/persistence/mongodb"
	"favorites-reconciler/internal/reconcile/config"
	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/reconcile/usecase"
	"favorites-reconciler/internal/shared/eventbus"
	"favorites-reconciler/internal/shared/logger"
)

// Streams are the process streams the job reads answers from and reports to
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Overrides replace the production adapters, mainly in tests
type Overrides struct {
	Connector repository.StoreConnector
	Loader    repository.CredentialLoader
	Confirmer repository.Confirmer
}

// ReconcileModule wires the reconciliation job to its adapters. The audit
// Redis is not contacted until a run has validated its credential.
type ReconcileModule struct {
	Config   *config.Config
	Logger   logger.Logger
	EventBus *eventbus.EventBus
	Metrics  *metrics.Metrics
	Usecase  usecase.ReconcileUsecase

	mu           sync.Mutex
	pendingAudit *persistence.RedisAuditLog
	auditLog     *persistence.RedisAuditLog
}

// NewReconcileModule builds the module, using any non-nil override in place
// of the production adapter
func NewReconcileModule(cfg *config.Config, log logger.Logger, streams Streams, overrides Overrides) (*ReconcileModule, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	// audit writes get one retry
	bus := eventbus.NewEventBusWithConfig(log, eventbus.BusConfig{
		MaxRetries: 1,
		RetryDelay: 50 * time.Millisecond,
	})

	runMetrics := metrics.NewMetrics()
	runMetrics.Subscribe(bus)

	module := &ReconcileModule{
		Config:   cfg,
		Logger:   log,
		EventBus: bus,
		Metrics:  runMetrics,
	}

	if cfg.Audit.RedisURL != "" {
		audit, err := persistence.NewRedisAuditLog(cfg.Audit.RedisURL, cfg.Audit.Stream, cfg.Audit.MaxLen, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit log: %w", err)
		}
		module.pendingAudit = audit
		bus.Subscribe(eventbus.EventTypeRunStarted, module.activateAudit)
	}

	connector := overrides.Connector
	if connector == nil {
		connector = mongodb.NewConnector(cfg.Mongo, log)
	}
	loader := overrides.Loader
	if loader == nil {
		loader = credentials.NewFileLoader()
	}
	confirmer := overrides.Confirmer
	if confirmer == nil {
		confirmer = console.NewConfirmer(streams.Stdin, streams.Stdout)
	}

	uc := usecase.NewReconcileUsecase(usecase.Dependencies{
		Loader:    loader,
		Connector: connector,
		Confirmer: confirmer,
		Reporter:  console.NewReporter(streams.Stdout, streams.Stderr),
		Bus:       bus,
		Logger:    log,
	}, usecase.Settings{
		BotsCollection:         cfg.Collections.Bots,
		UsersCollection:        cfg.Collections.Users,
		FavoritesSubcollection: cfg.Collections.Favorites,
		ScanConcurrency:        cfg.Concurrency.Scan,
		DeleteConcurrency:      cfg.Concurrency.Delete,
	})

	module.Usecase = uc
	return module, nil
}

// activateAudit pings the audit Redis on the first started run and, when it
// answers, subscribes the audit log to the run's events
func (m *ReconcileModule) activateAudit(ctx context.Context, event eventbus.Event) error {
	m.mu.Lock()
	audit := m.pendingAudit
	m.pendingAudit = nil
	m.mu.Unlock()
	if audit == nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := audit.Ping(pingCtx)
	cancel()
	if err != nil {
		m.Logger.Warnf("Audit Redis unreachable, continuing without audit trail: %v", err)
		_ = audit.Close()
		return nil
	}

	audit.Subscribe(m.EventBus)
	m.mu.Lock()
	m.auditLog = audit
	m.mu.Unlock()
	m.Logger.Infof("Audit trail enabled on stream %s", m.Config.Audit.Stream)
	return nil
}

// AuditLog returns the active audit log, or nil when auditing is disabled or
// no run has started yet
func (m *ReconcileModule) AuditLog() *persistence.RedisAuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auditLog
}

// GetUsecase returns the reconciliation job
func (m *ReconcileModule) GetUsecase() usecase.ReconcileUsecase {
	return m.Usecase
}

// PushMetrics sends the run metrics to the Pushgateway when one is
// configured. A run that never validated its credential pushes nothing.
func (m *ReconcileModule) PushMetrics(ctx context.Context, result *model.RunResult) error {
	if m.Config.Metrics.PushgatewayURL == "" {
		return nil
	}
	if result == nil || result.State == model.StateInit {
		m.Logger.Debug("Skipping metrics push for a run that did not load its credential")
		return nil
	}
	return m.Metrics.Push(ctx, m.Config.Metrics.PushgatewayURL, m.Config.Metrics.JobName)
}

// Stop releases the module's connections
func (m *ReconcileModule) Stop() error {
	m.mu.Lock()
	audits := []*persistence.RedisAuditLog{m.pendingAudit, m.auditLog}
	m.pendingAudit, m.auditLog = nil, nil
	m.mu.Unlock()

	for _, audit := range audits {
		if audit == nil {
			continue
		}
		if err := audit.Close(); err != nil {
			return fmt.Errorf("failed to close audit log: %w", err)
		}
	}
	return nil
}

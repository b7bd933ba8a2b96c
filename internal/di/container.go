package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"favorites-reconciler/internal/reconcile"
	"favorites-reconciler/internal/reconcile/config"
	"favorites-reconciler/internal/shared/logger"
)

// Container owns the process-wide configuration, logger and modules
type Container struct {
	mu sync.RWMutex
	// Module instances
	ReconcileModule *reconcile.ReconcileModule
	// Configuration
	Config *config.Config
	// Logger
	Logger logger.Logger
}

// NewContainer creates an empty container
func NewContainer() *Container {
	return &Container{}
}

// InitializeReconcile builds the reconciliation module from cfg, using any
// non-nil override in place of the production adapter
func (c *Container) InitializeReconcile(cfg *config.Config, log logger.Logger, streams reconcile.Streams, overrides reconcile.Overrides) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ReconcileModule != nil {
		return fmt.Errorf("reconcile module already initialized")
	}
	if cfg == nil {
		return fmt.Errorf("configuration must be loaded before the reconcile module")
	}
	if log == nil {
		log = logger.New(logger.OptionsFromEnv())
	}

	c.Config = cfg
	c.Logger = log

	module, err := reconcile.NewReconcileModule(cfg, log, streams, overrides)
	if err != nil {
		return fmt.Errorf("failed to create reconcile module: %w", err)
	}

	c.ReconcileModule = module
	return nil
}

// GetReconcileModule returns the reconciliation module instance
func (c *Container) GetReconcileModule() *reconcile.ReconcileModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ReconcileModule
}

// Cleanup stops the modules in reverse order of initialization
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.ReconcileModule != nil {
		if err := c.ReconcileModule.Stop(); err != nil {
			errs = append(errs, err)
		}
		c.ReconcileModule = nil
	}

	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close shuts the container down, logging any cleanup failure
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		if c.Logger != nil {
			c.Logger.Warnf("cleanup errors occurred: %v", err)
		}
		return err
	}
	if c.Logger != nil {
		c.Logger.Debug("container resources closed")
	}
	return nil
}

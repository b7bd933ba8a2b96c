package mongodb

import (
	"context"
	"fmt"
	"time"

	"favorites-reconciler/internal/reconcile/config"
	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"
	"favorites-reconciler/internal/shared/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connector opens one Mongo session per run
type Connector struct {
	cfg    config.MongoConfig
	logger logger.Logger
}

var _ repository.StoreConnector = (*Connector)(nil)

// NewConnector creates a connector for the configured deployment
func NewConnector(cfg config.MongoConfig, log logger.Logger) *Connector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Connector{cfg: cfg, logger: log.WithComponent("mongodb-connector")}
}

// Connect dials, pings and returns a store scoped to the credential's
// project and database. The returned store owns the client.
func (c *Connector) Connect(ctx context.Context, cred *model.Credential) (repository.DocumentStore, error) {
	timeout := c.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(c.cfg.URI).
		SetAppName("favorites-reconciler").
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, errors.NewConnectionError("failed to connect to document store").WithCause(err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.NewConnectionError(fmt.Sprintf("failed to reach document store for project %s", cred.ProjectID)).
			WithCause(err).
			WithDetail("project_id", cred.ProjectID)
	}

	c.logger.WithFields(map[string]interface{}{
		"project_id":  cred.ProjectID,
		"database_id": cred.Database(),
		"database":    c.cfg.Database,
	}).Info("MongoDB connection established successfully")

	db := NewMongoDatabaseAdapter(client.Database(c.cfg.Database))
	return NewDocumentStore(db, cred.ProjectID, cred.Database(), c.cfg.PageSize, c.logger, client.Disconnect), nil
}

package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/shared/eventbus"
	"favorites-reconciler/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// AuditEntry is one line of the run audit trail
type AuditEntry struct {
	RunID      string
	Event      string
	ProjectID  string
	Path       string
	UserID     string
	FavoriteID string
	Error      string
	Payload    interface{}
	Timestamp  time.Time
}

// RedisAuditLog appends run events to a Redis Stream so deletions can be traced
// after the process exits
type RedisAuditLog struct {
	client *redis.Client
	stream string
	maxLen int64
	logger logger.Logger
}

// NewRedisAuditLog connects to the Redis instance named by a redis:// URL
func NewRedisAuditLog(redisURL, stream string, maxLen int64, log logger.Logger) (*RedisAuditLog, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid audit redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return NewRedisAuditLogWithClient(redis.NewClient(opts), stream, maxLen, log), nil
}

// NewRedisAuditLogWithClient wraps an existing client
func NewRedisAuditLogWithClient(client *redis.Client, stream string, maxLen int64, log logger.Logger) *RedisAuditLog {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RedisAuditLog{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: log.WithComponent("audit-log"),
	}
}

// Ping checks the Redis connection
func (a *RedisAuditLog) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Record appends one entry to the stream
func (a *RedisAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	values := map[string]interface{}{
		"run_id":     entry.RunID,
		"event":      entry.Event,
		"project_id": entry.ProjectID,
		"timestamp":  entry.Timestamp.UnixNano(),
	}
	if entry.Path != "" {
		values["path"] = entry.Path
	}
	if entry.UserID != "" {
		values["user_id"] = entry.UserID
	}
	if entry.FavoriteID != "" {
		values["favorite_id"] = entry.FavoriteID
	}
	if entry.Error != "" {
		values["error"] = entry.Error
	}
	if entry.Payload != nil {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to serialize audit payload: %w", err)
		}
		values["payload"] = payload
	}

	args := &redis.XAddArgs{Stream: a.stream, Values: values}
	if a.maxLen > 0 {
		args.MaxLen = a.maxLen
		args.Approx = true
	}

	if _, err := a.client.XAdd(ctx, args).Result(); err != nil {
		a.logger.WithFields(map[string]interface{}{
			"stream": a.stream,
			"event":  entry.Event,
		}).Errorf("Failed to append audit entry: %v", err)
		return err
	}
	return nil
}

// Subscribe records every run event published on bus
func (a *RedisAuditLog) Subscribe(bus eventbus.EventBusInterface) {
	for _, eventType := range []string{
		eventbus.EventTypeFavoriteOrphaned,
		eventbus.EventTypeFavoriteDeleted,
		eventbus.EventTypeFavoriteDeletionFailed,
		eventbus.EventTypeUserScanFailed,
		eventbus.EventTypeReconciliationCompleted,
	} {
		bus.Subscribe(eventType, a.handle)
	}
}

func (a *RedisAuditLog) handle(ctx context.Context, event eventbus.Event) error {
	entry := AuditEntry{Event: event.Type(), Timestamp: event.Timestamp()}

	switch data := event.Data().(type) {
	case model.FavoriteEvent:
		entry.RunID = data.RunID
		entry.ProjectID = data.ProjectID
		entry.Path = data.Orphan.Path()
		entry.UserID = data.Orphan.UserID
		entry.FavoriteID = data.Orphan.FavoriteID
		entry.Error = data.Error
	case model.UserScanFailedEvent:
		entry.RunID = data.RunID
		entry.ProjectID = data.ProjectID
		entry.UserID = data.UserID
		entry.Error = data.Error
	case model.RunCompletedEvent:
		entry.RunID = data.Result.RunID
		entry.ProjectID = data.ProjectID
		entry.Payload = struct {
			Outcome    model.Outcome       `json:"outcome"`
			Statistics model.RunStatistics `json:"statistics"`
			DurationMS int64               `json:"durationMs"`
		}{data.Result.Outcome, data.Result.Statistics, data.Result.Duration().Milliseconds()}
	default:
		return fmt.Errorf("unexpected payload %T for %s", data, event.Type())
	}

	return a.Record(ctx, entry)
}

// Close closes the Redis client
func (a *RedisAuditLog) Close() error {
	return a.client.Close()
}

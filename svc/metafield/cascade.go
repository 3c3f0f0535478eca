package metafield

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/metafields/pkg/logger"
	"github.com/dmitrymomot/metafields/pkg/queue"
)

// DefinitionDeleted is published after a definition is removed.
// When Cascade is set, consumers delete the metafields sharing its key.
type DefinitionDeleted struct {
	ID            int64         `json:"id"`
	StoreID       uuid.UUID     `json:"store_id"`
	Name          string        `json:"name"`
	Namespace     string        `json:"namespace"`
	Key           string        `json:"key"`
	Type          ValueType     `json:"type"`
	OwnerResource OwnerResource `json:"owner_resource"`
	Cascade       bool          `json:"cascade"`
}

func (e DefinitionDeleted) DefinitionKey() DefinitionKey {
	return DefinitionKey{Namespace: e.Namespace, Key: e.Key, OwnerResource: e.OwnerResource}
}

// CascadeTaskName is the queue task name of DefinitionDeleted events. It is
// stable across package moves so dead-letter entries stay readable.
const CascadeTaskName = "metafield.definition_deleted"

// EventPublisher delivers definition events at least once.
type EventPublisher interface {
	PublishDefinitionDeleted(ctx context.Context, event DefinitionDeleted) error
}

// QueuePublisher publishes events as queue tasks.
type QueuePublisher struct {
	enqueuer   *queue.Enqueuer
	queue      string
	maxRetries int8
}

// NewQueuePublisher publishes to the cascade queue configured in cfg.
func NewQueuePublisher(enqueuer *queue.Enqueuer, cfg Config) *QueuePublisher {
	cfg = cfg.withDefaults()
	return &QueuePublisher{
		enqueuer:   enqueuer,
		queue:      cfg.CascadeQueue,
		maxRetries: cfg.CascadeMaxRetries,
	}
}

func (p *QueuePublisher) PublishDefinitionDeleted(ctx context.Context, event DefinitionDeleted) error {
	_, err := p.enqueuer.Enqueue(ctx, event,
		queue.WithQueue(p.queue),
		queue.WithTaskName(CascadeTaskName),
		queue.WithMaxRetries(p.maxRetries),
		queue.WithPriority(queue.PriorityHigh),
	)
	return err
}

// NewCascadeHandler returns the queue handler that removes metafields of
// deleted definitions. Re-delivery is harmless: a second run deletes nothing.
func NewCascadeHandler(svc *MetafieldService) queue.Handler {
	return queue.NewNamedTaskHandler(CascadeTaskName, func(ctx context.Context, event DefinitionDeleted) error {
		if !event.Cascade {
			return nil
		}
		n, err := svc.removeByDefinition(ctx, event.StoreID, event.DefinitionKey())
		if err != nil {
			return errors.Join(ErrFailedToRemoveMetafields, err)
		}
		svc.logger.InfoContext(ctx, "cascade removed metafields",
			logger.StoreID(event.StoreID),
			logger.DefinitionID(event.ID),
			logger.OwnerResource(string(event.OwnerResource)),
			logger.Count(n),
			slog.String("namespace", event.Namespace),
			slog.String("key", event.Key),
		)
		return nil
	})
}

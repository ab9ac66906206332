package events

import (
	"context"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultRelayInterval = time.Second
	relayBatchSize       = 100
)

type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.OrderEvent, error)
	MarkPublished(ctx context.Context, eventID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

// Relay moves committed events from the outbox to the broker. Delivery is at
// least once: an event published but not yet marked goes out again on the
// next tick, and consumers drop it by ID.
type Relay struct {
	store     OutboxStore
	publisher EventPublisher
	logger    *zap.Logger
	interval  time.Duration
}

func NewRelay(store OutboxStore, publisher EventPublisher, logger *zap.Logger, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processPending publishes one batch in outbox order and returns how many
// events were marked published. It stops at the first publish failure so a
// later event for the same order never overtakes an earlier one.
func (r *Relay) processPending(ctx context.Context) int {
	events, err := r.store.ListPending(ctx, relayBatchSize)
	if err != nil {
		r.logger.Warn("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("failed to publish order event",
				zap.String("event_id", event.ID),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
			return published
		}

		if err := r.store.MarkPublished(ctx, event.ID); err != nil {
			r.logger.Warn("failed to mark order event published",
				zap.String("event_id", event.ID),
				zap.Error(err))
			return published
		}
		published++
	}

	if published > 0 {
		r.logger.Debug("relayed order events", zap.Int("count", published))
	}
	return published
}

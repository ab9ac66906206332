package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultGroupID = "storefront-notifier"

// Handler consumes one decoded event. It must tolerate redelivery.
type Handler interface {
	Record(ctx context.Context, event domain.OrderEvent) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     messageReader
	handler    Handler
	logger     *zap.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(handler Handler, logger *zap.Logger, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(reader, handler, logger)
}

func newConsumer(reader messageReader, handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		handler:    handler,
		logger:     logger,
		backoff:    200 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
}

// Run consumes until ctx is cancelled. An offset is committed once the event
// is recorded or proved unprocessable. A store outage stalls the loop on the
// current message instead of skipping it, and a shutdown mid-retry leaves the
// offset uncommitted so the group redelivers it.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		time.Sleep(c.backoff)
		return
	}

	if err := c.handle(ctx, m); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("skipping unprocessable order event",
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Error(err))
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.logger.Warn("failed to commit offset", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}

// handle decodes m and records it. Transient store failures are retried with
// capped backoff until they clear or ctx ends; any other error is returned.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("parse order event: %w", err)
	}
	if event.ID == "" || event.UserID == "" {
		return fmt.Errorf("order event for %q is missing id or user", event.OrderID)
	}

	delay := c.backoff
	for {
		err := c.handler.Record(ctx, event)
		if err == nil {
			break
		}
		if !domain.Retryable(err) {
			return err
		}

		c.logger.Warn("order event not recorded, retrying",
			zap.String("event_id", event.ID),
			zap.Duration("backoff", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > c.maxBackoff {
			delay = c.maxBackoff
		}
	}

	c.logger.Debug("order event recorded",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID))
	return nil
}

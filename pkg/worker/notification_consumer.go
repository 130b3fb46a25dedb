package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/service/notification"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/metrics"
	"github.com/jwalitptl/marketplace-api/pkg/validator"
)

// Message outcome labels
const (
	StatusProcessed = "processed"
	StatusInvalid   = "invalid"
)

type ConsumerConfig struct {
	Channel         string
	RequestDeadline time.Duration
}

// NotificationRequest is the wire format of one queued batch send.
type NotificationRequest struct {
	UserIDs  []string               `json:"user_ids" validate:"required,min=1,dive,required"`
	Type     model.NotificationType `json:"type" validate:"required"`
	Data     model.TemplateData     `json:"data"`
	Vertical string                 `json:"vertical"`
}

// Subscriber is the receiving half of messaging.Broker.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

type NotificationConsumer struct {
	subscriber Subscriber
	notifier   notification.Notifier
	validator  validator.Validator
	config     ConsumerConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewNotificationConsumer(
	subscriber Subscriber,
	notifier notification.Notifier,
	v validator.Validator,
	config ConsumerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *NotificationConsumer {
	if config.Channel == "" {
		panic("Channel must not be empty")
	}
	if config.RequestDeadline <= 0 {
		config.RequestDeadline = time.Minute
	}

	return &NotificationConsumer{
		subscriber: subscriber,
		notifier:   notifier,
		validator:  v,
		config:     config,
		logger:     logger.With("channel", config.Channel),
		metrics:    metrics,
	}
}

// Start consumes requests until ctx is cancelled or the subscription closes.
func (c *NotificationConsumer) Start(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.config.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.logger.Info("Starting notification consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Shutting down notification consumer")
			return nil
		case payload, ok := <-messages:
			if !ok {
				c.logger.Warn("Subscription closed")
				return nil
			}
			if _, err := c.Handle(ctx, payload); err != nil {
				c.logger.Warn("Dropped notification request", "error", err.Error())
			}
		}
	}
}

// Handle decodes, validates and dispatches one request.
func (c *NotificationConsumer) Handle(ctx context.Context, payload []byte) ([]*model.NotificationResult, error) {
	var req NotificationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.metrics.ObserveWorkerMessage(StatusInvalid)
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := c.validator.Validate(&req); err != nil {
		c.metrics.ObserveWorkerMessage(StatusInvalid)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestDeadline)
	defer cancel()

	results := c.notifier.SendBatch(ctx, req.UserIDs, req.Type, req.Data, notification.Options{Vertical: req.Vertical})
	c.metrics.ObserveWorkerMessage(StatusProcessed)

	failed := 0
	for _, r := range results {
		for _, ch := range r.Channels {
			if !ch.Success {
				failed++
			}
		}
	}
	c.logger.Info("Processed notification request",
		"type", string(req.Type),
		"recipients", len(req.UserIDs),
		"failed_channels", failed,
	)
	return results, nil
}

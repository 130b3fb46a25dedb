package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/metrics"
)

// Invalidator drops a user's cached preferences.
type Invalidator interface {
	Invalidate(userID string)
}

// PreferenceChange is published by the profile owner after a user's
// notification preferences are written.
type PreferenceChange struct {
	UserID string `json:"user_id"`
}

// PreferenceInvalidator evicts cached preferences as change events arrive.
type PreferenceInvalidator struct {
	subscriber Subscriber
	cache      Invalidator
	channel    string
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewPreferenceInvalidator(subscriber Subscriber, cache Invalidator, channel string, logger *logger.Logger, metrics *metrics.Metrics) *PreferenceInvalidator {
	if channel == "" {
		panic("channel must not be empty")
	}
	return &PreferenceInvalidator{
		subscriber: subscriber,
		cache:      cache,
		channel:    channel,
		logger:     logger.With("channel", channel),
		metrics:    metrics,
	}
}

// Start evicts entries until ctx is cancelled or the subscription closes.
func (p *PreferenceInvalidator) Start(ctx context.Context) error {
	messages, err := p.subscriber.Subscribe(ctx, p.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	p.logger.Info("Starting preference invalidator")

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				p.logger.Warn("Subscription closed")
				return nil
			}
			if err := p.Handle(payload); err != nil {
				p.logger.Warn("Dropped preference change", "error", err.Error())
			}
		}
	}
}

// Handle evicts the user named by one change event.
func (p *PreferenceInvalidator) Handle(payload []byte) error {
	var change PreferenceChange
	if err := json.Unmarshal(payload, &change); err != nil {
		p.metrics.ObserveWorkerMessage(StatusInvalid)
		return fmt.Errorf("failed to decode preference change: %w", err)
	}
	userID := strings.TrimSpace(change.UserID)
	if userID == "" {
		p.metrics.ObserveWorkerMessage(StatusInvalid)
		return fmt.Errorf("preference change has no user_id")
	}

	p.cache.Invalidate(userID)
	p.metrics.ObserveWorkerMessage(StatusProcessed)
	p.logger.Debug("Invalidated cached preferences", "user_id", userID)
	return nil
}

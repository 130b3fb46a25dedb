package notification

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/repository"
	apperrors "github.com/jwalitptl/marketplace-api/pkg/errors"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/metrics"
)

const (
	defaultBatchConcurrency = 10
	defaultSenderTimeout    = 10 * time.Second
)

// Skip reasons reported by preference and contact gating.
const (
	ReasonEmailDisabled  = "user disabled email notifications"
	ReasonNoEmail        = "no email address on file"
	ReasonPushSupersedes = "push is enabled, SMS not needed"
	ReasonSMSDisabled    = "user disabled SMS notifications"
	ReasonNoPhone        = "no phone number on file"
)

const errNoSender = "no sender registered for channel"

// Options are the per-send addressing and link parameters.
type Options struct {
	Vertical  string
	UserEmail string
	UserPhone string
}

// Notifier is implemented by Dispatcher.
type Notifier interface {
	Send(ctx context.Context, userID string, t model.NotificationType, data model.TemplateData, opts Options) *model.NotificationResult
	SendBatch(ctx context.Context, userIDs []string, t model.NotificationType, data model.TemplateData, opts Options) []*model.NotificationResult
}

// Config tunes the dispatcher. Zero values select defaults.
type Config struct {
	BatchConcurrency int
	SenderTimeout    time.Duration
}

// Dispatcher renders a notification type and fans it out over the channels
// its urgency selects, gated by recipient preferences.
type Dispatcher struct {
	prefs   repository.PreferenceRepository
	senders map[model.NotificationChannel]ChannelSender
	logger  *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	cfg     Config
}

func NewDispatcher(prefs repository.PreferenceRepository, senders []ChannelSender, log *logger.Logger, m *metrics.Metrics, cfg Config) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = defaultBatchConcurrency
	}
	if cfg.SenderTimeout <= 0 {
		cfg.SenderTimeout = defaultSenderTimeout
	}

	bySender := make(map[model.NotificationChannel]ChannelSender, len(senders))
	for _, s := range senders {
		if s != nil {
			bySender[s.Channel()] = s
		}
	}

	return &Dispatcher{
		prefs:   prefs,
		senders: bySender,
		logger:  log,
		metrics: m,
		tracer:  otel.Tracer("github.com/jwalitptl/marketplace-api/internal/service/notification"),
		cfg:     cfg,
	}
}

// Send delivers one notification to one user. It never returns an error;
// every failure is reported in the per-channel results.
func (d *Dispatcher) Send(ctx context.Context, userID string, t model.NotificationType, data model.TemplateData, opts Options) *model.NotificationResult {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "notification.send", trace.WithAttributes(
		attribute.String("notification.type", string(t)),
		attribute.String("notification.user_id", userID),
	))
	defer span.End()

	log := logger.FromContext(ctx, d.logger)
	result := &model.NotificationResult{NotificationType: t, UserID: userID}

	cfg, err := GetConfig(t)
	if err != nil {
		log.Warn("rejected notification with unknown type", "type", string(t), "user_id", userID)
		span.SetStatus(codes.Error, err.Error())
		result.Channels = []model.ChannelResult{failed(model.ChannelInApp, err)}
		d.metrics.ObserveChannel(string(model.ChannelInApp), false, false)
		return result
	}
	span.SetAttributes(attribute.String("notification.urgency", string(cfg.Urgency)))

	content := Content{
		Type:      t,
		Title:     cfg.Title(data),
		Message:   cfg.Message(data),
		ActionURL: cfg.ActionURL(data, opts.Vertical),
		Data:      data,
	}
	dest := Destination{UserID: userID, Email: opts.UserEmail, Phone: opts.UserPhone}
	prefs := d.preferences(ctx, userID)

	channels := ChannelsFor(cfg.Urgency)
	result.Channels = make([]model.ChannelResult, 0, len(channels))
	for _, ch := range channels {
		res := d.attempt(ctx, ch, prefs, dest, content)
		result.Channels = append(result.Channels, res)
		if ch == model.ChannelInApp && res.Success && !res.Skipped {
			result.InAppNotificationID = res.MessageID
		}
		d.metrics.ObserveChannel(string(ch), res.Success, res.Skipped)
	}

	d.metrics.ObserveSend(string(t), string(cfg.Urgency), time.Since(start).Seconds())
	log.Debug("notification dispatched",
		"type", string(t),
		"user_id", userID,
		"channels", len(result.Channels),
	)
	return result
}

// SendBatch sends the same notification to every user concurrently, bounded
// by BatchConcurrency. Results are in input order and one user's failure
// never affects another's.
func (d *Dispatcher) SendBatch(ctx context.Context, userIDs []string, t model.NotificationType, data model.TemplateData, opts Options) []*model.NotificationResult {
	results := make([]*model.NotificationResult, len(userIDs))
	d.metrics.ObserveBatch(len(userIDs))

	var g errgroup.Group
	g.SetLimit(d.cfg.BatchConcurrency)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error(fmt.Errorf("%v", r), "recovered panic in batch send", "user_id", userID)
					results[i] = &model.NotificationResult{
						NotificationType: t,
						UserID:           userID,
						Channels: []model.ChannelResult{
							failed(model.ChannelInApp, fmt.Errorf("send panicked: %v", r)),
						},
					}
				}
			}()
			results[i] = d.Send(ctx, userID, t, data, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) preferences(ctx context.Context, userID string) model.NotificationPreferences {
	if d.prefs == nil {
		d.metrics.ObservePreferenceFallback()
		return model.DefaultNotificationPreferences()
	}

	prefs, err := d.prefs.GetPreferences(ctx, userID)
	switch {
	case err != nil && apperrors.IsNotFound(err):
		d.logger.Debug("no preferences on file, using defaults", "user_id", userID)
	case err != nil:
		logger.FromContext(ctx, d.logger).Warn("failed to load preferences, using defaults", "user_id", userID, "error", err.Error())
	case prefs == nil:
		d.logger.Debug("no preferences on file, using defaults", "user_id", userID)
	default:
		return *prefs
	}

	d.metrics.ObservePreferenceFallback()
	return model.DefaultNotificationPreferences()
}

// gate returns a skip reason when ch must not be attempted. push_enabled only
// suppresses the SMS fallback; push itself always reaches its sender.
func gate(ch model.NotificationChannel, prefs model.NotificationPreferences, dest Destination) (string, bool) {
	switch ch {
	case model.ChannelEmail:
		if !prefs.EmailOrderUpdates {
			return ReasonEmailDisabled, true
		}
		if dest.Email == "" {
			return ReasonNoEmail, true
		}
	case model.ChannelSMS:
		if prefs.PushEnabled {
			return ReasonPushSupersedes, true
		}
		if !prefs.SMSOrderUpdates {
			return ReasonSMSDisabled, true
		}
		if dest.Phone == "" {
			return ReasonNoPhone, true
		}
	}
	return "", false
}

func (d *Dispatcher) attempt(ctx context.Context, ch model.NotificationChannel, prefs model.NotificationPreferences, dest Destination, content Content) model.ChannelResult {
	if reason, skip := gate(ch, prefs, dest); skip {
		return skipped(ch, reason)
	}

	sender, ok := d.senders[ch]
	if !ok {
		return model.ChannelResult{Channel: ch, Error: errNoSender}
	}
	return d.deliver(ctx, sender, dest, content)
}

func (d *Dispatcher) deliver(ctx context.Context, sender ChannelSender, dest Destination, content Content) (res model.ChannelResult) {
	ch := sender.Channel()
	ctx, cancel := context.WithTimeout(ctx, d.cfg.SenderTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(fmt.Errorf("%v", r), "recovered panic in channel sender", "channel", string(ch), "user_id", dest.UserID)
			res = model.ChannelResult{Channel: ch, Error: fmt.Sprintf("sender panicked: %v", r)}
		}
	}()

	res = sender.Send(ctx, dest, content)
	res.Channel = ch
	if !res.Success && res.Error != "" {
		logger.FromContext(ctx, d.logger).Warn("channel delivery failed",
			"channel", string(ch),
			"user_id", dest.UserID,
			"type", string(content.Type),
			"error", res.Error,
		)
	}
	return res
}

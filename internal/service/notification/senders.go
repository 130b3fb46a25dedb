package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwalitptl/marketplace-api/internal/email"
	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/repository"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/messaging"
)

// Destination is the addressing for one recipient. Email and Phone may be empty.
type Destination struct {
	UserID string
	Email  string
	Phone  string
}

// Content is the rendered notification handed to every channel.
type Content struct {
	Type      model.NotificationType
	Title     string
	Message   string
	ActionURL string
	Data      model.TemplateData
}

// ChannelSender delivers rendered content over one channel. Implementations
// report failures in the returned result instead of returning errors.
type ChannelSender interface {
	Channel() model.NotificationChannel
	Send(ctx context.Context, dest Destination, content Content) model.ChannelResult
}

func failed(ch model.NotificationChannel, err error) model.ChannelResult {
	return model.ChannelResult{Channel: ch, Error: err.Error()}
}

func skipped(ch model.NotificationChannel, reason string) model.ChannelResult {
	return model.ChannelResult{Channel: ch, Success: true, Skipped: true, Reason: reason}
}

// InAppSender persists the notification row and then publishes it to the
// realtime channel. Publishing is best-effort.
type InAppSender struct {
	repo      repository.NotificationRepository
	publisher messaging.Publisher
	channel   string
	logger    *logger.Logger
}

// NewInAppSender creates an in-app sender. publisher may be nil.
func NewInAppSender(repo repository.NotificationRepository, publisher messaging.Publisher, channel string, log *logger.Logger) *InAppSender {
	if log == nil {
		log = logger.Nop()
	}
	return &InAppSender{
		repo:      repo,
		publisher: publisher,
		channel:   channel,
		logger:    log,
	}
}

func (s *InAppSender) Channel() model.NotificationChannel {
	return model.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, dest Destination, content Content) model.ChannelResult {
	data, err := json.Marshal(content.Data)
	if err != nil {
		return failed(model.ChannelInApp, fmt.Errorf("failed to encode notification data: %w", err))
	}

	n := &model.Notification{
		UserID:    dest.UserID,
		Type:      content.Type,
		Title:     content.Title,
		Message:   content.Message,
		ActionURL: content.ActionURL,
		Data:      data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return failed(model.ChannelInApp, fmt.Errorf("failed to create in-app notification: %w", err))
	}

	if s.publisher != nil && s.channel != "" {
		if err := s.publisher.Publish(ctx, s.channel, n); err != nil {
			s.logger.Warn("failed to publish realtime notification",
				"notification_id", n.ID,
				"user_id", n.UserID,
				"error", err.Error(),
			)
		}
	}

	return model.ChannelResult{Channel: model.ChannelInApp, Success: true, MessageID: n.ID}
}

// EmailSender delivers through an email.Service. Without one it reports
// every attempt as skipped.
type EmailSender struct {
	svc     email.Service
	baseURL string
}

// NewEmailSender creates an email sender. A nil svc yields the unconfigured stub.
func NewEmailSender(svc email.Service, baseURL string) *EmailSender {
	return &EmailSender{svc: svc, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *EmailSender) Channel() model.NotificationChannel {
	return model.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, dest Destination, content Content) model.ChannelResult {
	if s.svc == nil {
		return skipped(model.ChannelEmail, "email service not configured")
	}

	text := content.Message
	if content.ActionURL != "" {
		text += "\n\nView details: " + s.baseURL + content.ActionURL
	}

	id, err := s.svc.Send(ctx, email.Message{
		To:      dest.Email,
		Subject: content.Title,
		Text:    text,
	})
	if err != nil {
		return failed(model.ChannelEmail, fmt.Errorf("failed to send email: %w", err))
	}
	return model.ChannelResult{Channel: model.ChannelEmail, Success: true, MessageID: id}
}

// SMSSender is a placeholder until an SMS provider is integrated.
type SMSSender struct{}

func (SMSSender) Channel() model.NotificationChannel {
	return model.ChannelSMS
}

func (SMSSender) Send(context.Context, Destination, Content) model.ChannelResult {
	return skipped(model.ChannelSMS, "SMS service not configured")
}

// PushSender is a placeholder until a push provider is integrated.
type PushSender struct{}

func (PushSender) Channel() model.NotificationChannel {
	return model.ChannelPush
}

func (PushSender) Send(context.Context, Destination, Content) model.ChannelResult {
	return skipped(model.ChannelPush, "push service not configured")
}

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/marketplace-api/internal/model"
)

func testContent() Content {
	return Content{
		Type:      model.NotificationOrderReady,
		Title:     "Order ready for pickup",
		Message:   "Order #ABC123 is ready for pickup.",
		ActionURL: "/farmers_market/buyer/orders",
		Data:      model.TemplateData{OrderNumber: "ABC123"},
	}
}

func TestInAppSenderPersistsAndPublishes(t *testing.T) {
	repo := newMemoryNotifications()
	pub := &fakePublisher{}
	s := NewInAppSender(repo, pub, "notifications:realtime", nil)

	res := s.Send(context.Background(), Destination{UserID: "u1"}, testContent())

	require.True(t, res.Success)
	assert.Equal(t, model.ChannelInApp, res.Channel)

	rows := repo.all()
	require.Len(t, rows, 1)
	assert.Equal(t, rows[0].ID, res.MessageID)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, model.NotificationOrderReady, rows[0].Type)
	assert.Equal(t, "/farmers_market/buyer/orders", rows[0].ActionURL)

	var data model.TemplateData
	require.NoError(t, json.Unmarshal(rows[0].Data, &data))
	assert.Equal(t, "ABC123", data.OrderNumber)

	require.Len(t, pub.channels, 1)
	assert.Equal(t, "notifications:realtime", pub.channels[0])
	published, ok := pub.messages[0].(*model.Notification)
	require.True(t, ok)
	assert.Equal(t, res.MessageID, published.ID)
}

func TestInAppSenderIgnoresPublishFailure(t *testing.T) {
	repo := newMemoryNotifications()
	s := NewInAppSender(repo, &fakePublisher{err: errors.New("broker down")}, "rt", nil)

	res := s.Send(context.Background(), Destination{UserID: "u1"}, testContent())

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.MessageID)
	assert.Len(t, repo.all(), 1)
}

func TestInAppSenderReportsWriteFailure(t *testing.T) {
	repo := newMemoryNotifications()
	repo.failFor["u1"] = errors.New("disk full")
	pub := &fakePublisher{}
	s := NewInAppSender(repo, pub, "rt", nil)

	res := s.Send(context.Background(), Destination{UserID: "u1"}, testContent())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "disk full")
	assert.Empty(t, res.MessageID)
	assert.Empty(t, pub.channels)
}

func TestEmailSenderUnconfigured(t *testing.T) {
	res := NewEmailSender(nil, "").Send(context.Background(), Destination{Email: "a@example.com"}, testContent())

	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Equal(t, "email service not configured", res.Reason)
}

func TestEmailSenderDelivers(t *testing.T) {
	svc := &fakeEmail{}
	s := NewEmailSender(svc, "https://market.example.com/")

	res := s.Send(context.Background(), Destination{UserID: "u1", Email: "a@example.com"}, testContent())

	require.True(t, res.Success)
	assert.Equal(t, "email-1", res.MessageID)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, "a@example.com", svc.sent[0].To)
	assert.Equal(t, "Order ready for pickup", svc.sent[0].Subject)
	assert.Contains(t, svc.sent[0].Text, "Order #ABC123 is ready for pickup.")
	assert.Contains(t, svc.sent[0].Text, "https://market.example.com/farmers_market/buyer/orders")
}

func TestEmailSenderReportsFailure(t *testing.T) {
	s := NewEmailSender(&fakeEmail{err: errors.New("relay refused")}, "")

	res := s.Send(context.Background(), Destination{Email: "a@example.com"}, testContent())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "relay refused")
}

func TestStubSenders(t *testing.T) {
	sms := SMSSender{}.Send(context.Background(), Destination{Phone: "+15550100"}, testContent())
	assert.True(t, sms.Success)
	assert.True(t, sms.Skipped)
	assert.Equal(t, "SMS service not configured", sms.Reason)

	push := PushSender{}.Send(context.Background(), Destination{}, testContent())
	assert.True(t, push.Success)
	assert.True(t, push.Skipped)
	assert.Equal(t, "push service not configured", push.Reason)
}

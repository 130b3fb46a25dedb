package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/service/notification"
	"github.com/jwalitptl/marketplace-api/pkg/validator"
)

type fakeNotifier struct {
	userIDs []string
	typ     model.NotificationType
	data    model.TemplateData
	opts    notification.Options
}

func (f *fakeNotifier) Send(_ context.Context, userID string, t model.NotificationType, data model.TemplateData, opts notification.Options) *model.NotificationResult {
	f.userIDs = append(f.userIDs, userID)
	f.typ, f.data, f.opts = t, data, opts
	return &model.NotificationResult{
		NotificationType: t,
		UserID:           userID,
		Channels:         []model.ChannelResult{{Channel: model.ChannelInApp, Success: true, MessageID: "n-1"}},
	}
}

func (f *fakeNotifier) SendBatch(ctx context.Context, userIDs []string, t model.NotificationType, data model.TemplateData, opts notification.Options) []*model.NotificationResult {
	out := make([]*model.NotificationResult, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, f.Send(ctx, id, t, data, opts))
	}
	return out
}

type fakeRepo struct {
	rows      []*model.Notification
	err       error
	lastLimit int
}

func (r *fakeRepo) Create(context.Context, *model.Notification) error { return nil }

func (r *fakeRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (r *fakeRepo) ListByUser(_ context.Context, _ string, limit int) ([]*model.Notification, error) {
	r.lastLimit = limit
	return r.rows, r.err
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(notifier *fakeNotifier, repo *fakeRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(notifier, repo, validator.New(), nil).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestSendNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	r := setup(notifier, &fakeRepo{})

	w, env := do(t, r, http.MethodPost, "/api/v1/notifications", map[string]interface{}{
		"user_id":    "buyer-1",
		"type":       "order_ready",
		"vertical":   "farmers_market",
		"user_email": "buyer@example.com",
		"data": map[string]interface{}{
			"order_number": "ABC123",
			"amount_cents": 2500,
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, []string{"buyer-1"}, notifier.userIDs)
	assert.Equal(t, model.NotificationOrderReady, notifier.typ)
	assert.Equal(t, "ABC123", notifier.data.OrderNumber)
	require.NotNil(t, notifier.data.AmountCents)
	assert.Equal(t, int64(2500), *notifier.data.AmountCents)
	assert.Equal(t, "farmers_market", notifier.opts.Vertical)
	assert.Equal(t, "buyer@example.com", notifier.opts.UserEmail)

	var result model.NotificationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "buyer-1", result.UserID)
}

func TestSendNotificationValidation(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing user", map[string]interface{}{"type": "order_ready"}},
		{"missing type", map[string]interface{}{"user_id": "u1"}},
		{"bad email", map[string]interface{}{"user_id": "u1", "type": "order_ready", "user_email": "not-an-email"}},
		{"malformed", "just a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			w, env := do(t, setup(notifier, &fakeRepo{}), http.MethodPost, "/api/v1/notifications", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "error", env.Status)
			assert.NotEmpty(t, env.Message)
			assert.Empty(t, notifier.userIDs)
		})
	}
}

func TestSendUnknownTypeIsPassedThrough(t *testing.T) {
	notifier := &fakeNotifier{}
	w, env := do(t, setup(notifier, &fakeRepo{}), http.MethodPost, "/api/v1/notifications", map[string]interface{}{
		"user_id": "u1",
		"type":    "not_a_real_type",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, model.NotificationType("not_a_real_type"), notifier.typ)
}

func TestSendBatch(t *testing.T) {
	notifier := &fakeNotifier{}
	w, env := do(t, setup(notifier, &fakeRepo{}), http.MethodPost, "/api/v1/notifications/batch", map[string]interface{}{
		"user_ids": []string{"u1", "u2", "u3"},
		"type":     "market_day_reminder",
		"data":     map[string]interface{}{"market_name": "Downtown Market"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var results []model.NotificationResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 3)
	assert.Equal(t, "u3", results[2].UserID)
	assert.Equal(t, []string{"u1", "u2", "u3"}, notifier.userIDs)
}

func TestSendBatchRejectsEmpty(t *testing.T) {
	notifier := &fakeNotifier{}
	w, _ := do(t, setup(notifier, &fakeRepo{}), http.MethodPost, "/api/v1/notifications/batch", map[string]interface{}{
		"user_ids": []string{},
		"type":     "low_stock",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, notifier.userIDs)
}

func TestListTypes(t *testing.T) {
	w, env := do(t, setup(&fakeNotifier{}, &fakeRepo{}), http.MethodGet, "/api/v1/notifications/types", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var types []notification.TypeDescriptor
	require.NoError(t, json.Unmarshal(env.Data, &types))
	assert.Len(t, types, len(model.AllNotificationTypes()))
}

func TestListForUser(t *testing.T) {
	repo := &fakeRepo{rows: []*model.Notification{{ID: "n1", UserID: "u1", Title: "Order ready for pickup"}}}
	r := setup(&fakeNotifier{}, repo)

	w, env := do(t, r, http.MethodGet, "/api/v1/users/u1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultListLimit, repo.lastLimit)

	var rows []model.Notification
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "n1", rows[0].ID)

	do(t, r, http.MethodGet, "/api/v1/users/u1/notifications?limit=5000", nil)
	assert.Equal(t, maxListLimit, repo.lastLimit)

	w, _ = do(t, r, http.MethodGet, "/api/v1/users/u1/notifications?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListForUserEmpty(t *testing.T) {
	w, env := do(t, setup(&fakeNotifier{}, &fakeRepo{}), http.MethodGet, "/api/v1/users/u1/notifications", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestListForUserError(t *testing.T) {
	w, env := do(t, setup(&fakeNotifier{}, &fakeRepo{err: errors.New("db down")}), http.MethodGet, "/api/v1/users/u1/notifications", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Message)
}

package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/marketplace-api/internal/email"
	"github.com/jwalitptl/marketplace-api/internal/model"
	apperrors "github.com/jwalitptl/marketplace-api/pkg/errors"
)

type memoryNotifications struct {
	mu      sync.Mutex
	rows    []*model.Notification
	failFor map[string]error
}

func newMemoryNotifications() *memoryNotifications {
	return &memoryNotifications{failFor: map[string]error{}}
}

func (r *memoryNotifications) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[n.UserID]; ok {
		return err
	}
	n.ID = uuid.New().String()
	cp := *n
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *memoryNotifications) ListByUser(_ context.Context, userID string, _ int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memoryNotifications) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryNotifications) all() []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Notification(nil), r.rows...)
}

type staticPrefs struct {
	prefs *model.NotificationPreferences
	err   error
}

func (p staticPrefs) GetPreferences(context.Context, string) (*model.NotificationPreferences, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.prefs == nil {
		return nil, apperrors.NotFound("user profile", errors.New("no rows"))
	}
	cp := *p.prefs
	return &cp, nil
}

// recordingSender counts calls and returns a successful result unless fn is set.
type recordingSender struct {
	ch    model.NotificationChannel
	calls atomic.Int32
	fn    func(ctx context.Context, dest Destination, content Content) model.ChannelResult
}

func (s *recordingSender) Channel() model.NotificationChannel {
	return s.ch
}

func (s *recordingSender) Send(ctx context.Context, dest Destination, content Content) model.ChannelResult {
	s.calls.Add(1)
	if s.fn != nil {
		return s.fn(ctx, dest, content)
	}
	return model.ChannelResult{Channel: s.ch, Success: true, MessageID: string(s.ch) + "-1"}
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	channels []string
	messages []interface{}
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, message)
	return p.err
}

type fakeEmail struct {
	err  error
	sent []email.Message
}

func (f *fakeEmail) Send(_ context.Context, msg email.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "email-1", nil
}

package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/marketplace-api/internal/model"
)

// All repository interfaces in one file
type (
	// NotificationRepository persists in-app notification rows
	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
		DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// PreferenceRepository reads channel opt-ins from the user-profile store.
	// A missing profile is reported as a pkg/errors NotFound error.
	PreferenceRepository interface {
		GetPreferences(ctx context.Context, userID string) (*model.NotificationPreferences, error)
	}
)

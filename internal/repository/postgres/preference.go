package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/repository"
	apperrors "github.com/jwalitptl/marketplace-api/pkg/errors"
)

type preferenceRepository struct {
	BaseRepository
}

func NewPreferenceRepository(base BaseRepository) repository.PreferenceRepository {
	return &preferenceRepository{base}
}

// GetPreferences decodes the stored JSON over the defaults, so keys missing from
// the stored document keep their default value.
func (r *preferenceRepository) GetPreferences(ctx context.Context, userID string) (_ *model.NotificationPreferences, err error) {
	start := time.Now()
	defer func() { r.observe("get_preferences", start, err) }()

	query := r.rebind(`
		SELECT id, email, phone, notification_preferences
		FROM user_profiles
		WHERE id = ?
	`)

	var profile model.UserProfile
	if err = r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user profile", err)
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	prefs := model.DefaultNotificationPreferences()
	if profile.NotificationPreferences == nil || strings.TrimSpace(*profile.NotificationPreferences) == "" {
		return &prefs, nil
	}
	if err = json.Unmarshal([]byte(*profile.NotificationPreferences), &prefs); err != nil {
		return nil, fmt.Errorf("failed to decode notification preferences: %w", err)
	}
	return &prefs, nil
}

package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/repository"
)

// PreferenceRepository caches successful preference lookups in memory.
// Errors, including a missing profile, are never cached.
type PreferenceRepository struct {
	next  repository.PreferenceRepository
	cache *gocache.Cache
}

var _ repository.PreferenceRepository = (*PreferenceRepository)(nil)

func NewPreferenceRepository(next repository.PreferenceRepository, ttl, cleanupInterval time.Duration) *PreferenceRepository {
	return &PreferenceRepository{
		next:  next,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (r *PreferenceRepository) GetPreferences(ctx context.Context, userID string) (*model.NotificationPreferences, error) {
	if v, ok := r.cache.Get(userID); ok {
		prefs := v.(model.NotificationPreferences)
		return &prefs, nil
	}

	prefs, err := r.next.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs != nil {
		r.cache.SetDefault(userID, *prefs)
	}
	return prefs, nil
}

// Invalidate drops the cached entry for userID, e.g. after a profile update.
func (r *PreferenceRepository) Invalidate(userID string) {
	r.cache.Delete(userID)
}

package cached

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
)

const (
	keyEnabled    = "preferences:enabled"
	keyUserPrefix = "preferences:user:"
)

// preferenceRepository is a read-through TTL cache over the preference
// store. Preferences change rarely next to how often runs read them, and a
// short TTL keeps a manual run from seeing minutes-old data.
type preferenceRepository struct {
	inner repository.PreferenceRepository
	cache *gocache.Cache
}

func NewPreferenceRepository(inner repository.PreferenceRepository, ttl time.Duration) repository.PreferenceRepository {
	return &preferenceRepository{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *preferenceRepository) ListEnabled(ctx context.Context) ([]*model.NotificationPreference, error) {
	if hit, found := r.cache.Get(keyEnabled); found {
		return hit.([]*model.NotificationPreference), nil
	}

	prefs, err := r.inner.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(keyEnabled, prefs)
	return prefs, nil
}

func (r *preferenceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	key := keyUserPrefix + userID.String()
	if hit, found := r.cache.Get(key); found {
		return hit.([]*model.NotificationPreference), nil
	}

	prefs, err := r.inner.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, prefs)
	return prefs, nil
}

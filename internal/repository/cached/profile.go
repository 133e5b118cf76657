package cached

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
)

type profileRepository struct {
	inner repository.ProfileRepository
	cache *gocache.Cache
}

func NewProfileRepository(inner repository.ProfileRepository, ttl time.Duration) repository.ProfileRepository {
	return &profileRepository{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	key := "profiles:" + userID.String()
	if hit, found := r.cache.Get(key); found {
		return hit.(*model.UserProfile), nil
	}

	profile, err := r.inner.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, profile)
	return profile, nil
}

// ListByUserIDs serves what it can from the cache and fetches only the
// misses in one query.
func (r *profileRepository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.UserProfile, error) {
	result := make(map[uuid.UUID]*model.UserProfile, len(userIDs))
	var misses []uuid.UUID

	for _, id := range userIDs {
		if hit, found := r.cache.Get("profiles:" + id.String()); found {
			result[id] = hit.(*model.UserProfile)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := r.inner.ListByUserIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, profile := range fetched {
		r.cache.SetDefault("profiles:"+id.String(), profile)
		result[id] = profile
	}
	return result, nil
}

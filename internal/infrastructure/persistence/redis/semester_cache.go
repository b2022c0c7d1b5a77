package redis

import (
	"context"
	"errors"

	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
)

const activeSemesterKey = PrefixSemester + "active"

// ActiveSemesterCache implements semester.ActiveProvider on top of Redis.
// The cached entry is written with a TTL as a safety net; StartSemester
// refreshes it explicitly, so the TTL only matters when another process
// switches the semester.
type ActiveSemesterCache struct {
	cache     *Cache
	semesters semester.Repository
}

// NewActiveSemesterCache creates a provider backed by the given cache
// and semester repository.
func NewActiveSemesterCache(cache *Cache, semesters semester.Repository) *ActiveSemesterCache {
	return &ActiveSemesterCache{
		cache:     cache,
		semesters: semesters,
	}
}

// Active returns the active semester, from cache when possible.
// Cache failures other than a miss fall through to the repository:
// a degraded Redis must not stop visit recording.
func (p *ActiveSemesterCache) Active(ctx context.Context) (*semester.Semester, error) {
	var cached semester.Semester
	err := p.cache.Get(ctx, activeSemesterKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return p.semesters.GetActive(ctx)
	}

	active, err := p.semesters.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	// Best effort: the next call re-reads from the repository anyway.
	_ = p.cache.Set(ctx, activeSemesterKey, active, TTLActiveSemester)

	return active, nil
}

// Refresh drops the cached value and re-populates it from the repository.
func (p *ActiveSemesterCache) Refresh(ctx context.Context) error {
	if err := p.cache.Delete(ctx, activeSemesterKey); err != nil {
		return err
	}

	active, err := p.semesters.GetActive(ctx)
	if err != nil {
		if errors.Is(err, semester.ErrSemesterNotFound) {
			return nil
		}
		return err
	}

	return p.cache.Set(ctx, activeSemesterKey, active, TTLActiveSemester)
}

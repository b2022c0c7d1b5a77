package redis

import (
	"context"

	"github.com/physed-hub/phys-ed-journal/internal/application/query"
)

// SummaryCache caches computed student summaries. The TTL is short: a
// summary goes stale the moment a visit is recorded, and one minute of
// staleness is acceptable for the journal UI.
type SummaryCache struct {
	cache *Cache
}

// NewSummaryCache creates a new SummaryCache.
func NewSummaryCache(cache *Cache) *SummaryCache {
	return &SummaryCache{cache: cache}
}

func summaryKey(studentGUID string) string {
	return PrefixStudent + "summary:" + studentGUID
}

// Get returns the cached summary or ErrCacheMiss.
func (c *SummaryCache) Get(ctx context.Context, studentGUID string) (*query.StudentSummary, error) {
	var summary query.StudentSummary
	if err := c.cache.Get(ctx, summaryKey(studentGUID), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Set stores the summary.
func (c *SummaryCache) Set(ctx context.Context, summary *query.StudentSummary) error {
	return c.cache.Set(ctx, summaryKey(summary.StudentGUID), summary, TTLStudentSummary)
}

// Invalidate drops the cached summary after a write touching the student.
func (c *SummaryCache) Invalidate(ctx context.Context, studentGUID string) error {
	return c.cache.Delete(ctx, summaryKey(studentGUID))
}

package fetch

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is how long a fetched posting is reused.
const DefaultCacheTTL = 6 * time.Hour

// JobSource fetches job postings.
type JobSource interface {
	JobPage(ctx context.Context, urlStr string) (*JobPosting, error)
}

// CachedFetcher memoizes job postings by URL. Failures are not cached.
type CachedFetcher struct {
	source JobSource
	pages  *cache.Cache
}

// NewCachedFetcher wraps source with an in-memory cache. A zero ttl uses DefaultCacheTTL.
func NewCachedFetcher(source JobSource, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		source: source,
		pages:  cache.New(ttl, ttl*2),
	}
}

// JobPage returns the cached posting for urlStr, fetching it on a miss.
func (f *CachedFetcher) JobPage(ctx context.Context, urlStr string) (*JobPosting, error) {
	if cached, ok := f.pages.Get(urlStr); ok {
		posting := *cached.(*JobPosting)
		return &posting, nil
	}

	posting, err := f.source.JobPage(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	stored := *posting
	f.pages.SetDefault(urlStr, &stored)
	return posting, nil
}

// Invalidate drops a cached posting.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.pages.Delete(urlStr)
}

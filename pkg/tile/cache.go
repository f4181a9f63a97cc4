package tile

import (
	"context"
	"image"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"
)

// CachedFetcher keeps decoded tiles in memory and collapses concurrent
// requests for the same URL into one download.
type CachedFetcher struct {
	next     Fetcher
	ttl      time.Duration
	cache    *ccache.Cache[image.Image]
	inflight singleflight.Group
}

// NewCachedFetcher wraps next with an LRU holding at most size tiles
func NewCachedFetcher(next Fetcher, size int64, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		next:  next,
		ttl:   ttl,
		cache: ccache.New(ccache.Configure[image.Image]().MaxSize(size)),
	}
}

// FetchTile returns the cached tile or fetches it once for all waiting callers
func (c *CachedFetcher) FetchTile(ctx context.Context, url string) (image.Image, error) {
	if item := c.cache.Get(url); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	// The shared download must not die with the first caller's context.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(url, func() (interface{}, error) {
		img, err := c.next.FetchTile(fetchCtx, url)
		if err != nil {
			return nil, err
		}
		c.cache.Set(url, img, c.ttl)
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

// Len reports the number of cached tiles
func (c *CachedFetcher) Len() int {
	return c.cache.ItemCount()
}

// Close stops the cache's background worker
func (c *CachedFetcher) Close() {
	c.cache.Stop()
}

package api

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/subshare/subshare/internal/models"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshare_cache_hits_total",
		Help: "Listing cache hits.",
	}, []string{"cache"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshare_cache_misses_total",
		Help: "Listing cache misses.",
	}, []string{"cache"})
)

const catalogKey = "visible"

// defaultCacheSize bounds the code cache.
const defaultCacheSize = 1024

// ListingCache keeps recently read public listings for ttl. Any write to
// the catalog must call Purge.
type ListingCache struct {
	byCode  *expirable.LRU[string, models.Listing]
	catalog *expirable.LRU[string, []models.Listing]
}

// NewListingCache creates a cache holding up to size listings by code.
// A non-positive ttl disables caching.
func NewListingCache(size int, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	return &ListingCache{
		byCode:  expirable.NewLRU[string, models.Listing](size, nil, ttl),
		catalog: expirable.NewLRU[string, []models.Listing](1, nil, ttl),
	}
}

// Listing returns the cached listing for code.
func (c *ListingCache) Listing(code string) (models.Listing, bool) {
	if c == nil {
		return models.Listing{}, false
	}
	l, ok := c.byCode.Get(code)
	observe("listing", ok)
	return l, ok
}

// SetListing caches l under its code.
func (c *ListingCache) SetListing(l models.Listing) {
	if c == nil || l.Code == "" {
		return
	}
	c.byCode.Add(l.Code, l)
}

// Catalog returns the cached visible catalog.
func (c *ListingCache) Catalog() ([]models.Listing, bool) {
	if c == nil {
		return nil, false
	}
	ls, ok := c.catalog.Get(catalogKey)
	observe("catalog", ok)
	return ls, ok
}

// SetCatalog caches the visible catalog.
func (c *ListingCache) SetCatalog(listings []models.Listing) {
	if c == nil {
		return
	}
	c.catalog.Add(catalogKey, listings)
}

// Purge drops every cached entry.
func (c *ListingCache) Purge() {
	if c == nil {
		return
	}
	c.byCode.Purge()
	c.catalog.Purge()
}

func observe(cache string, hit bool) {
	if hit {
		cacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	cacheMissesTotal.WithLabelValues(cache).Inc()
}

package campaign

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_cache_hits_total"})
	cacheMiss = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_cache_miss_total"})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMiss)
}

// Cache keeps recently resolved campaigns in memory for the view-tracking hot
// path, which reads the same campaign on every update call.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration
	group singleflight.Group
}

type cacheEntry struct {
	campaign *Campaign
	storedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]cacheEntry),
		ttl:   ttl,
	}
}

func (c *Cache) Get(id string) (*Campaign, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	if !ok || (c.ttl > 0 && time.Since(v.storedAt) > c.ttl) {
		cacheMiss.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return v.campaign, true
}

func (c *Cache) Set(id string, campaign *Campaign) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = cacheEntry{campaign: campaign, storedAt: time.Now()}
}

func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Resolve loads through the cache, collapsing concurrent misses for the same
// id into a single loader call.
func (c *Cache) Resolve(id string, load func() (*Campaign, error)) (*Campaign, error) {
	if cached, ok := c.Get(id); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			c.Set(id, loaded)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	campaign, _ := v.(*Campaign)
	return campaign, nil
}

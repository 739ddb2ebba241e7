package cache

import (
	"strings"
	"sync"
	"time"
)

// CacheEntry represents a cached currency resolution with its insertion time
type CacheEntry struct {
	Currency  string
	Timestamp time.Time
}

// CurrencyCache is a thread-safe in-memory cache of validated country→currency resolutions.
// Exchange rates are never stored here.
type CurrencyCache struct {
	cache      map[string]CacheEntry
	expiration time.Duration
	now        func() time.Time
	mutex      sync.RWMutex
}

// NewCurrencyCache creates a cache whose entries expire after ttl
func NewCurrencyCache(ttl time.Duration) *CurrencyCache {
	return &CurrencyCache{
		cache:      make(map[string]CacheEntry),
		expiration: ttl,
		now:        time.Now,
	}
}

func cacheKey(countryCode string) string {
	return strings.ToUpper(countryCode)
}

// Get returns the cached currency for a country code if present and not expired
func (c *CurrencyCache) Get(countryCode string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[cacheKey(countryCode)]
	if !exists || c.now().Sub(entry.Timestamp) > c.expiration {
		return "", false
	}

	return entry.Currency, true
}

// Put stores a resolution
func (c *CurrencyCache) Put(countryCode, currency string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[cacheKey(countryCode)] = CacheEntry{
		Currency:  currency,
		Timestamp: c.now(),
	}
}

// Size returns the number of items in the cache
func (c *CurrencyCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CleanExpired removes expired entries and returns how many were dropped
func (c *CurrencyCache) CleanExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	now := c.now()

	for key, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			delete(c.cache, key)
			count++
		}
	}

	return count
}

package services

import (
	"errors"
	"log"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
)

const (
	localCoverTTL  = 5 * time.Minute
	remoteCoverTTL = 15 * time.Minute
)

// CoverCache is a two level cache for resolved covers: in-process first, then memcached when configured
type CoverCache struct {
	local  *ccache.Cache[*models.Cover]
	remote *memcache.Client
}

// NewCoverCache creates the cache. An empty memcachedHost keeps it process local.
func NewCoverCache(memcachedHost string) *CoverCache {
	cache := &CoverCache{
		local: ccache.New(ccache.Configure[*models.Cover]().MaxSize(1000)),
	}
	if memcachedHost != "" {
		cache.remote = memcache.New(memcachedHost)
		log.Printf("Cover cache using Memcached at %s", memcachedHost)
	}
	return cache
}

// coverCacheKey maps a normalized title to a memcached safe key
func coverCacheKey(titleKey string) string {
	return "cover:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(titleKey)).String()
}

// Get returns the cached cover for a normalized title
func (c *CoverCache) Get(titleKey string) (*models.Cover, bool) {
	key := coverCacheKey(titleKey)

	if item := c.local.Get(key); item != nil && !item.Expired() {
		return item.Value(), true
	}

	if c.remote == nil {
		return nil, false
	}

	item, err := c.remote.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			log.Printf("Error getting cover from Memcached: key=%s, error=%v", key, err)
		}
		return nil, false
	}

	var cover models.Cover
	if err := json.Unmarshal(item.Value, &cover); err != nil {
		log.Printf("Error decoding cover from Memcached: key=%s, error=%v", key, err)
		return nil, false
	}
	cover.TitleKey = titleKey

	c.local.Set(key, &cover, localCoverTTL)
	return &cover, true
}

// Set stores the cover in both levels
func (c *CoverCache) Set(titleKey string, cover *models.Cover) {
	key := coverCacheKey(titleKey)
	c.local.Set(key, cover, localCoverTTL)

	if c.remote == nil {
		return
	}

	data, err := json.Marshal(cover)
	if err != nil {
		log.Printf("Error encoding cover for Memcached: key=%s, error=%v", key, err)
		return
	}

	err = c.remote.Set(&memcache.Item{
		Key:        key,
		Value:      data,
		Expiration: int32(remoteCoverTTL / time.Second),
	})
	if err != nil {
		log.Printf("Error setting cover in Memcached: key=%s, error=%v", key, err)
	}
}

// Delete evicts the cover from both levels
func (c *CoverCache) Delete(titleKey string) {
	key := coverCacheKey(titleKey)
	c.local.Delete(key)

	if c.remote == nil {
		return
	}
	if err := c.remote.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		log.Printf("Error deleting cover from Memcached: key=%s, error=%v", key, err)
	}
}

// Stop releases the local cache's background worker
func (c *CoverCache) Stop() {
	c.local.Stop()
}

package finance

import (
	"sync"
	"time"
)

const chartCacheMax = 64

var (
	chartCache   = map[string]chartCacheEntry{}
	chartCacheMu sync.Mutex
	cacheNow     = time.Now
)

func cacheGet(key string) ([]byte, bool) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	entry, ok := chartCache[key]
	if !ok {
		return nil, false
	}
	if !cacheNow().Before(entry.createdAt.Add(chartCacheTTL)) {
		delete(chartCache, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

// cacheSet stores a copy of img, dropping expired entries once the cache is full.
func cacheSet(key string, img []byte) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	now := cacheNow()
	if len(chartCache) >= chartCacheMax {
		for k, e := range chartCache {
			if !now.Before(e.createdAt.Add(chartCacheTTL)) {
				delete(chartCache, k)
			}
		}
	}
	if len(chartCache) >= chartCacheMax {
		var oldestKey string
		var oldest time.Time
		for k, e := range chartCache {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(chartCache, oldestKey)
	}
	stored := make([]byte, len(img))
	copy(stored, img)
	chartCache[key] = chartCacheEntry{createdAt: now, image: stored}
}

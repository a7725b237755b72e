package forecast

import (
	"crypto/md5" //nolint:gosec // cache key fingerprint, not a security boundary
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mgarzon/floracast-go/internal/features"
)

// cacheKeyPrefix separates prediction entries from anything else sharing
// the store, matching the key scheme the consuming service already uses.
const cacheKeyPrefix = "_prediccion_"

// ResultCache holds computed predictions per domain. Identical normalized
// requests map to one key regardless of field order, concurrent writers
// resolve last-writer-wins.
type ResultCache struct {
	domain string
	store  *cache.Cache
}

// newResultCache builds a cache with the configured TTL. Cleanup runs at
// twice the TTL like the other caches in this codebase.
func newResultCache(domain string, ttl time.Duration) *ResultCache {
	return &ResultCache{
		domain: domain,
		store:  cache.New(ttl, ttl*2),
	}
}

// Key derives the cache key for a request: the domain-prefixed hex MD5
// over the casefolded and trimmed subject fields plus any extra parameters
// in sorted key order.
func (c *ResultCache) Key(req *PredictionRequest) string {
	h := md5.New() //nolint:gosec // fingerprint only
	writeNormalized(h, req.Species)
	writeNormalized(h, req.Climate)
	writeNormalized(h, req.Location)
	for _, k := range slices.Sorted(maps.Keys(req.Extra)) {
		writeNormalized(h, k)
		writeNormalized(h, req.Extra[k])
	}
	return c.domain + cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func writeNormalized(w io.Writer, value string) {
	_, _ = io.WriteString(w, features.Fold(strings.TrimSpace(value)))
	_, _ = io.WriteString(w, "\x1f")
}

// Get returns the stored result for a key.
func (c *ResultCache) Get(key string) (*PredictionResult, bool) {
	v, found := c.store.Get(key)
	if !found {
		if m := getCacheMetrics(); m != nil {
			m.RecordMiss(c.domain)
		}
		return nil, false
	}
	r, ok := v.(*PredictionResult)
	if !ok {
		return nil, false
	}
	if m := getCacheMetrics(); m != nil {
		m.RecordHit(c.domain)
	}
	return r, true
}

// Set stores a result unconditionally, overwriting any prior entry.
func (c *ResultCache) Set(key string, r *PredictionResult) {
	c.store.Set(key, r, cache.DefaultExpiration)
	if m := getCacheMetrics(); m != nil {
		m.RecordStore(c.domain)
	}
}

// Flush empties the cache. Called on artifact reload, a new model version
// must not serve estimates computed by the old one.
func (c *ResultCache) Flush() {
	c.store.Flush()
	if m := getCacheMetrics(); m != nil {
		m.RecordFlush(c.domain)
	}
}

// Len reports the number of live entries.
func (c *ResultCache) Len() int {
	return c.store.ItemCount()
}

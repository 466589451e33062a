package hub

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"otto/internal/device"
)

// DedupCache replays responses for repeated command nonces so a retried
// send_command never reaches the wire twice. Entries live in one LRU
// keyed by device and nonce, with a TTL checked on read.
type DedupCache struct {
	cache      *lru.Cache[string, *dedupEntry]
	expiration time.Duration
}

type dedupEntry struct {
	response *device.ActionResponse
	storedAt time.Time
}

// NewDedupCache creates a dedup cache holding up to maxSize entries.
func NewDedupCache(maxSize int, expiration time.Duration) *DedupCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if expiration <= 0 {
		expiration = time.Hour
	}

	cache, _ := lru.New[string, *dedupEntry](maxSize)

	return &DedupCache{
		cache:      cache,
		expiration: expiration,
	}
}

// GenerateNonce returns a fresh nonce for a command envelope.
func GenerateNonce() string {
	return uuid.NewString()
}

// Check returns the cached response for a nonce, if one is live.
func (dc *DedupCache) Check(deviceID, nonce string) (*device.ActionResponse, bool) {
	if nonce == "" {
		return nil, false
	}

	entry, found := dc.cache.Get(dc.key(deviceID, nonce))
	if !found {
		return nil, false
	}
	if time.Since(entry.storedAt) > dc.expiration {
		dc.cache.Remove(dc.key(deviceID, nonce))
		return nil, false
	}

	return entry.response, true
}

// Store caches a response under a nonce. Empty nonces are not cached.
func (dc *DedupCache) Store(deviceID, nonce string, response *device.ActionResponse) {
	if nonce == "" {
		return
	}

	dc.cache.Add(dc.key(deviceID, nonce), &dedupEntry{
		response: response,
		storedAt: time.Now(),
	})
}

// Len returns the number of cached entries.
func (dc *DedupCache) Len() int {
	return dc.cache.Len()
}

// Purge drops every cached entry.
func (dc *DedupCache) Purge() {
	dc.cache.Purge()
}

func (dc *DedupCache) key(deviceID, nonce string) string {
	return deviceID + "/" + nonce
}

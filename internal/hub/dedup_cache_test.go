package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"otto/internal/device"
)

func TestDedupCache(t *testing.T) {
	t.Run("replays stored response", func(t *testing.T) {
		cache := NewDedupCache(10, time.Minute)
		response := &device.ActionResponse{Success: true, Data: "@OK"}

		_, found := cache.Check("player1", "nonce-1")
		assert.False(t, found)

		cache.Store("player1", "nonce-1", response)

		cached, found := cache.Check("player1", "nonce-1")
		assert.True(t, found)
		assert.Same(t, response, cached)
	})

	t.Run("nonces are scoped per device", func(t *testing.T) {
		cache := NewDedupCache(10, time.Minute)
		cache.Store("player1", "nonce-1", &device.ActionResponse{Success: true})

		_, found := cache.Check("player2", "nonce-1")
		assert.False(t, found)
	})

	t.Run("empty nonce is never cached", func(t *testing.T) {
		cache := NewDedupCache(10, time.Minute)
		cache.Store("player1", "", &device.ActionResponse{Success: true})

		assert.Zero(t, cache.Len())
		_, found := cache.Check("player1", "")
		assert.False(t, found)
	})

	t.Run("expired entries are dropped on read", func(t *testing.T) {
		cache := NewDedupCache(10, 10*time.Millisecond)
		cache.Store("player1", "nonce-1", &device.ActionResponse{Success: true})

		time.Sleep(20 * time.Millisecond)

		_, found := cache.Check("player1", "nonce-1")
		assert.False(t, found)
		assert.Zero(t, cache.Len())
	})

	t.Run("purge clears everything", func(t *testing.T) {
		cache := NewDedupCache(10, time.Minute)
		cache.Store("player1", "a", &device.ActionResponse{Success: true})
		cache.Store("player1", "b", &device.ActionResponse{Success: true})

		cache.Purge()
		assert.Zero(t, cache.Len())
	})
}

func TestGenerateNonce(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		nonce := GenerateNonce()
		assert.NotEmpty(t, nonce)
		assert.False(t, seen[nonce], "nonce collision: %s", nonce)
		seen[nonce] = true
	}
}

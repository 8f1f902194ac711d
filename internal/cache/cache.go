// Package cache stores liveness-check fetch results so re-runs against the
// same evidence URLs do not hammer the hosts being verified.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage contract shared by the memory and disk layers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a stable key from a URL. The version segment invalidates
// everything at once when the cached payload shape changes.
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "cryptopaymap:v1:" + hex.EncodeToString(hash[:])
}

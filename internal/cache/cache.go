package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the byte-oriented cache used for search memoisation
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "satyamitra:v1:"

// Key builds a namespaced cache key; the value is normalised (trimmed, lowercased) and hashed
func Key(namespace, value string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(value), " "))
	hash := sha256.Sum256([]byte(normalized))
	return keyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}

// New returns a memory cache, or a memory+disk layered cache when dir is set
func New(ttl time.Duration, dir string) Cache {
	if dir == "" {
		return NewMemoryCache(ttl, 10*time.Minute)
	}
	return NewLayeredCache(ttl, dir, ttl)
}

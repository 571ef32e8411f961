package cache

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"
	"github.com/rubiojr/enigma/internal/log"
	"github.com/rubiojr/enigma/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache memoizes crack results for the lifetime of the process.
type Cache interface {
	Get(key []byte) ([]types.Candidate, bool)
	Put(key []byte, candidates []types.Candidate)
	Reset()
}

// ResultCache keeps msgpack-encoded crack results in an in-memory fastcache.
// Nothing is written to disk.
type ResultCache struct {
	cache *fastcache.Cache
	stats CacheStats
}

// CacheStats tracks cache hit/miss statistics
type CacheStats struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Additions atomic.Int64
}

// NewResultCache creates a cache holding up to sizeMB megabytes.
func NewResultCache(sizeMB int) *ResultCache {
	log.Debugf("Creating crack result cache with size %dMB", sizeMB)
	return &ResultCache{
		cache: fastcache.New(sizeMB * 1024 * 1024),
	}
}

// Key derives the cache key for a search. The machine fingerprint is part of
// the key so that different tables never share entries.
func Key(fingerprint uint64, ciphertext, fragment string) []byte {
	h := xxhash.New()
	h.WriteString(ciphertext)
	h.WriteString("\x00")
	h.WriteString(fragment)

	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], fingerprint)
	binary.BigEndian.PutUint64(key[8:], h.Sum64())
	return key
}

func (rc *ResultCache) Get(key []byte) ([]types.Candidate, bool) {
	buf := rc.cache.GetBig(nil, key)
	if len(buf) == 0 {
		rc.stats.Misses.Add(1)
		return nil, false
	}

	var candidates []types.Candidate
	if err := msgpack.Unmarshal(buf, &candidates); err != nil {
		log.Errorf("discarding undecodable cache entry: %v", err)
		rc.stats.Misses.Add(1)
		return nil, false
	}

	rc.stats.Hits.Add(1)
	return candidates, true
}

func (rc *ResultCache) Put(key []byte, candidates []types.Candidate) {
	if candidates == nil {
		candidates = []types.Candidate{}
	}
	buf, err := msgpack.Marshal(candidates)
	if err != nil {
		log.Errorf("failed to encode crack result: %v", err)
		return
	}
	rc.cache.SetBig(key, buf)
	rc.stats.Additions.Add(1)
}

// GetStats returns hits, misses and additions so far.
func (rc *ResultCache) GetStats() (hits, misses, additions int64) {
	return rc.stats.Hits.Load(), rc.stats.Misses.Load(), rc.stats.Additions.Load()
}

// Reset drops every entry.
func (rc *ResultCache) Reset() {
	rc.cache.Reset()
}

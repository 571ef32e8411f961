package cache

import "github.com/rubiojr/enigma/internal/types"

type NoopCache struct{}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (nc *NoopCache) Get(key []byte) ([]types.Candidate, bool) {
	return nil, false
}

func (nc *NoopCache) Put(key []byte, candidates []types.Candidate) {
}

func (nc *NoopCache) Reset() {
}

// Package keysearch recovers rotor settings by trying every triple against a
// known plaintext fragment.
package keysearch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rubiojr/enigma/internal/cache"
	"github.com/rubiojr/enigma/internal/engine"
	"github.com/rubiojr/enigma/internal/errmsg"
	"github.com/rubiojr/enigma/internal/log"
	"github.com/rubiojr/enigma/internal/pairmap"
	"github.com/rubiojr/enigma/internal/pool"
	"github.com/rubiojr/enigma/internal/types"
)

const (
	// ShardSize is the number of triples sharing one first setting.
	ShardSize = pairmap.AlphabetSize * pairmap.AlphabetSize
	// Keyspace is the number of rotor-setting triples.
	Keyspace = pairmap.AlphabetSize * ShardSize
)

type Searcher struct {
	machine     *engine.Machine
	concurrency int
	progress    chan int
	cache       cache.Cache
}

type Option func(*Searcher)

// WithConcurrency sets the number of shards searched at once.
func WithConcurrency(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithProgress receives the number of triples tried each time a shard
// finishes. Sends block, so the channel must be drained.
func WithProgress(ch chan int) Option {
	return func(s *Searcher) {
		s.progress = ch
	}
}

func WithCache(c cache.Cache) Option {
	return func(s *Searcher) {
		s.cache = c
	}
}

func New(machine *engine.Machine, opts ...Option) *Searcher {
	s := &Searcher{
		machine:     machine,
		concurrency: runtime.NumCPU(),
		cache:       &cache.NoopCache{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Machine returns the machine the searcher decodes with.
func (s *Searcher) Machine() *engine.Machine {
	return s.machine
}

// Crack tries all 17,576 settings on ciphertext and returns every triple
// whose output contains fragment, in ascending (s1, s2, s3) order. No match
// is an empty result, not an error. The search only fails if ctx is done or
// the machine itself is broken.
func (s *Searcher) Crack(ctx context.Context, ciphertext, fragment string) ([]types.Candidate, error) {
	ciphertext = engine.Normalize(ciphertext)
	fragment = strings.ToUpper(fragment)

	key := cache.Key(s.machine.Fingerprint(), ciphertext, fragment)
	if found, ok := s.cache.Get(key); ok {
		log.Debugf("crack cache hit for %d letters of ciphertext", len(ciphertext))
		s.report(Keyspace)
		return found, nil
	}

	shardCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var fault error
	results := []types.Candidate{}

	p := pool.NewPool(s.concurrency)
	p.Start()
	for s1 := 0; s1 < pairmap.AlphabetSize; s1++ {
		p.Submit(func() error {
			found, err := s.crackShard(shardCtx, ciphertext, fragment, s1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Every shard shares the machine, so one failure dooms the rest.
				if fault == nil && shardCtx.Err() == nil {
					fault = err
				}
				cancel()
				return err
			}
			results = append(results, found...)
			s.report(ShardSize)
			return nil
		})
	}
	p.Stop()

	if fault != nil {
		return nil, fault
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	Sort(results)
	s.cache.Put(key, results)
	return results, nil
}

// CrackShard tries the 676 triples whose first setting is setting1.
func (s *Searcher) CrackShard(ctx context.Context, ciphertext, fragment string, setting1 int) ([]types.Candidate, error) {
	if setting1 < engine.MinSetting || setting1 > engine.MaxSetting {
		return nil, &errmsg.RangeError{Rotor: 1, Value: setting1}
	}
	return s.crackShard(ctx, engine.Normalize(ciphertext), strings.ToUpper(fragment), setting1)
}

func (s *Searcher) crackShard(ctx context.Context, ciphertext, fragment string, setting1 int) ([]types.Candidate, error) {
	found := []types.Candidate{}
	for s2 := 0; s2 < pairmap.AlphabetSize; s2++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for s3 := 0; s3 < pairmap.AlphabetSize; s3++ {
			decoded, err := s.machine.ConvertNormalized(ciphertext, engine.Settings{setting1, s2, s3})
			if err != nil {
				return nil, fmt.Errorf("settings %d %d %d: %w", setting1, s2, s3, err)
			}
			if strings.Contains(decoded, fragment) {
				found = append(found, types.Candidate{
					Setting1: setting1,
					Setting2: s2,
					Setting3: s3,
					Decoded:  decoded,
				})
			}
		}
	}
	return found, nil
}

func (s *Searcher) report(n int) {
	if s.progress == nil {
		return
	}
	s.progress <- n
}

// Sort puts candidates in ascending (s1, s2, s3) order.
func Sort(candidates []types.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Less(candidates[j])
	})
}

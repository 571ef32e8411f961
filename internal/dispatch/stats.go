package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// WorkerStats tracks what a shard worker has done since it started.
type WorkerStats struct {
	shardsReceived int64
	shardsAnswered int64
	shardsFailed   int64
	candidates     int64
	startTime      time.Time
	mutex          sync.Mutex
}

func NewWorkerStats() *WorkerStats {
	return &WorkerStats{startTime: time.Now()}
}

func (stats *WorkerStats) IncrementReceived() {
	stats.mutex.Lock()
	defer stats.mutex.Unlock()
	stats.shardsReceived++
}

func (stats *WorkerStats) RecordAnswered(candidates int) {
	stats.mutex.Lock()
	defer stats.mutex.Unlock()
	stats.shardsAnswered++
	stats.candidates += int64(candidates)
}

func (stats *WorkerStats) IncrementFailed() {
	stats.mutex.Lock()
	defer stats.mutex.Unlock()
	stats.shardsFailed++
}

// Snapshot returns received, answered and failed shard counts.
func (stats *WorkerStats) Snapshot() (received, answered, failed int64) {
	stats.mutex.Lock()
	defer stats.mutex.Unlock()
	return stats.shardsReceived, stats.shardsAnswered, stats.shardsFailed
}

// String renders a one-line status.
func (stats *WorkerStats) String() string {
	stats.mutex.Lock()
	defer stats.mutex.Unlock()
	return fmt.Sprintf("shards: %s received, %s answered, %s failed | candidates: %s | up since %s",
		humanize.Comma(stats.shardsReceived),
		humanize.Comma(stats.shardsAnswered),
		humanize.Comma(stats.shardsFailed),
		humanize.Comma(stats.candidates),
		humanize.Time(stats.startTime),
	)
}

// Package dispatch spreads a key search over NATS. The coordinator publishes
// one request per first-rotor setting; workers in a queue group each answer
// the shards they receive.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rubiojr/enigma/internal/engine"
	"github.com/rubiojr/enigma/internal/errmsg"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/log"
	"github.com/rubiojr/enigma/internal/pairmap"
	"github.com/rubiojr/enigma/internal/pool"
	"github.com/rubiojr/enigma/internal/types"
)

const (
	DefaultSubject = "ENIGMA.shards"
	DefaultQueue   = "enigma-workers"
)

const drainPoll = 10 * time.Millisecond

// Connect opens a NATS connection, with mutual TLS when clientCert is set.
func Connect(url, clientCert, clientKey, caCert string) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name("enigma")}

	if clientCert != "" {
		log.Debug("enabling Mutual TLS")
		opts = append(
			opts,
			nats.ClientCert(clientCert, clientKey),
			nats.RootCAs(caCert),
		)
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %v", err)
	}
	return nc, nil
}

type Worker struct {
	nc       *nats.Conn
	searcher *keysearch.Searcher
	subject  string
	queue    string
	name     string
	stats    *WorkerStats

	drainTimeout time.Duration
}

type WorkerOption func(*Worker)

func WithWorkerSubject(subject string) WorkerOption {
	return func(w *Worker) {
		w.subject = subject
	}
}

func WithQueue(queue string) WorkerOption {
	return func(w *Worker) {
		w.queue = queue
	}
}

// WithDrainTimeout bounds how long Listen waits for queued shards on shutdown.
func WithDrainTimeout(timeout time.Duration) WorkerOption {
	return func(w *Worker) {
		w.drainTimeout = timeout
	}
}

func WithStats(stats *WorkerStats) WorkerOption {
	return func(w *Worker) {
		w.stats = stats
	}
}

func NewWorker(nc *nats.Conn, searcher *keysearch.Searcher, options ...WorkerOption) *Worker {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	w := &Worker{
		nc:       nc,
		searcher: searcher,
		subject:  DefaultSubject,
		queue:    DefaultQueue,
		name:     fmt.Sprintf("%s.%d", hostname, os.Getpid()),
		stats:    NewWorkerStats(),

		drainTimeout: 30 * time.Second,
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Stats returns the worker's counters.
func (w *Worker) Stats() *WorkerStats {
	return w.stats
}

// Listen answers shard requests until ctx is done. The subscription is then
// drained and in-flight shards are finished before it returns.
func (w *Worker) Listen(ctx context.Context) error {
	shardCtx := context.WithoutCancel(ctx)
	tracker := newInflight()

	sub, err := w.nc.QueueSubscribe(w.subject, w.queue, func(msg *nats.Msg) {
		if !tracker.enter() {
			return
		}
		defer tracker.leave()
		w.handle(shardCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %v", err)
	}
	if err := w.nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush subscription: %v", err)
	}
	log.Printf("worker %s listening on %s (queue %s)", w.name, w.subject, w.queue)

	<-ctx.Done()
	log.Debug("worker stopped due to cancellation")

	if err := sub.Drain(); err != nil {
		log.Errorf("failed to drain subscription: %v", err)
	} else {
		w.waitDrained(sub)
	}
	tracker.close()
	return nil
}

// waitDrained blocks until every message already delivered to sub has been
// handed to the callback, or the drain timeout passes.
func (w *Worker) waitDrained(sub *nats.Subscription) {
	deadline := time.Now().Add(w.drainTimeout)
	for sub.IsValid() {
		if time.Now().After(deadline) {
			log.Errorf("subscription %s not drained after %s\n", w.subject, w.drainTimeout)
			return
		}
		time.Sleep(drainPoll)
	}
}

// inflight counts running shard handlers. Once closed it admits no new
// handlers and close waits for the running ones.
type inflight struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running int
	closed  bool
}

func newInflight() *inflight {
	i := &inflight{}
	i.cond = sync.NewCond(&i.mu)
	return i
}

func (i *inflight) enter() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return false
	}
	i.running++
	return true
}

func (i *inflight) leave() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running--
	if i.running == 0 {
		i.cond.Broadcast()
	}
}

func (i *inflight) close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	for i.running > 0 {
		i.cond.Wait()
	}
}

func (w *Worker) handle(ctx context.Context, msg *nats.Msg) {
	w.stats.IncrementReceived()

	var req types.ShardRequest
	if err := msgpack.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Failed to unmarshal shard request: %v\n", err)
		w.stats.IncrementFailed()
		w.respond(msg, types.ShardResponse{Error: fmt.Sprintf("bad request: %v", err)})
		return
	}

	resp := types.ShardResponse{Setting1: req.Setting1, Worker: w.name}
	if req.Fingerprint != w.searcher.Machine().Fingerprint() {
		w.stats.IncrementFailed()
		resp.Mismatch = true
		resp.Error = fmt.Sprintf("worker tables %016x, coordinator tables %016x",
			w.searcher.Machine().Fingerprint(), req.Fingerprint)
		w.respond(msg, resp)
		return
	}

	log.Debugf("[%s] searching shard %d", w.name, req.Setting1)
	found, err := w.searcher.CrackShard(ctx, req.Ciphertext, req.Fragment, req.Setting1)
	if err != nil {
		w.stats.IncrementFailed()
		resp.Error = err.Error()
		w.respond(msg, resp)
		return
	}

	resp.Candidates = found
	resp.Tried = keysearch.ShardSize
	w.stats.RecordAnswered(len(found))
	w.respond(msg, resp)
}

func (w *Worker) respond(msg *nats.Msg, resp types.ShardResponse) {
	data, err := msgpack.Marshal(&resp)
	if err != nil {
		log.Errorf("Failed to marshal shard response: %v\n", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Errorf("Failed to respond to shard %d: %v\n", resp.Setting1, err)
	}
}

// Coordinator runs a key search on remote workers.
type Coordinator struct {
	nc       *nats.Conn
	machine  *engine.Machine
	subject  string
	timeout  time.Duration
	progress chan int
}

type CoordinatorOption func(*Coordinator)

func WithSubject(subject string) CoordinatorOption {
	return func(c *Coordinator) {
		c.subject = subject
	}
}

// WithTimeout bounds how long each shard may take.
func WithTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}

// WithProgress receives the number of triples tried as each shard returns.
func WithProgress(ch chan int) CoordinatorOption {
	return func(c *Coordinator) {
		c.progress = ch
	}
}

// NewCoordinator returns a coordinator that expects workers to run machine's tables.
func NewCoordinator(nc *nats.Conn, machine *engine.Machine, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		nc:      nc,
		machine: machine,
		subject: DefaultSubject,
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Crack has the same contract as keysearch.Searcher.Crack, with the shards
// answered by whichever workers are listening.
func (c *Coordinator) Crack(ctx context.Context, ciphertext, fragment string) ([]types.Candidate, error) {
	ciphertext = engine.Normalize(ciphertext)
	fragment = strings.ToUpper(fragment)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var firstErr error
	results := []types.Candidate{}

	p := pool.NewPool(pairmap.AlphabetSize)
	p.Start()
	for s1 := 0; s1 < pairmap.AlphabetSize; s1++ {
		p.Submit(func() error {
			found, err := c.requestShard(ctx, ciphertext, fragment, s1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				cancel()
				return err
			}
			results = append(results, found...)
			if c.progress != nil {
				c.progress <- keysearch.ShardSize
			}
			return nil
		})
	}
	p.Stop()

	if firstErr != nil {
		return nil, firstErr
	}

	keysearch.Sort(results)
	return results, nil
}

func (c *Coordinator) requestShard(ctx context.Context, ciphertext, fragment string, setting1 int) ([]types.Candidate, error) {
	data, err := msgpack.Marshal(&types.ShardRequest{
		Ciphertext:  ciphertext,
		Fragment:    fragment,
		Setting1:    setting1,
		Fingerprint: c.machine.Fingerprint(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode shard %d: %v", setting1, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(reqCtx, c.subject, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("no workers listening on %s: %w", c.subject, err)
		}
		return nil, fmt.Errorf("shard %d: %w", setting1, err)
	}

	var resp types.ShardResponse
	if err := msgpack.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode shard %d response: %v", setting1, err)
	}
	if resp.Mismatch {
		return nil, fmt.Errorf("%w: worker %s: %s", errmsg.ErrMachineMismatch, resp.Worker, resp.Error)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("worker %s failed shard %d: %s", resp.Worker, setting1, resp.Error)
	}

	log.Debugf("shard %d answered by %s with %d candidates", setting1, resp.Worker, len(resp.Candidates))
	return resp.Candidates, nil
}

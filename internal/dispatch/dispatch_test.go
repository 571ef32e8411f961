package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rubiojr/enigma/internal/engine"
	"github.com/rubiojr/enigma/internal/errmsg"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/rotor"
	"github.com/rubiojr/enigma/internal/test"
	"github.com/rubiojr/enigma/internal/types"
)

func connect(t *testing.T, url string) *nats.Conn {
	nc, err := Connect(url, "", "", "")
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

// startWorkers runs n workers with machine's tables until the test ends.
func startWorkers(t *testing.T, url string, machine *engine.Machine, n int) []*Worker {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	workers := make([]*Worker, n)
	ready := make(chan struct{}, n)
	for i := range workers {
		w := NewWorker(connect(t, url), keysearch.New(machine))
		workers[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			ready <- struct{}{}
			assert.NoError(t, w.Listen(ctx))
		}()
	}
	for range workers {
		<-ready
	}
	// Give the subscriptions time to register with the server.
	time.Sleep(100 * time.Millisecond)
	return workers
}

func TestDistributedCrackMatchesLocal(t *testing.T) {
	url := test.StartNATS(t)
	workers := startWorkers(t, url, engine.Default(), 3)

	progress := make(chan int, 26)
	coord := NewCoordinator(connect(t, url), engine.Default(), WithTimeout(20*time.Second), WithProgress(progress))

	cipher, err := engine.Default().Convert("ATTACKATDAWNATTACKATDAWN", 10, 20, 5)
	require.NoError(t, err)

	remote, err := coord.Crack(context.Background(), cipher, "attack")
	require.NoError(t, err)

	local, err := keysearch.New(engine.Default()).Crack(context.Background(), cipher, "ATTACK")
	require.NoError(t, err)
	assert.Equal(t, local, remote)

	close(progress)
	var tried int
	for n := range progress {
		tried += n
	}
	assert.Equal(t, keysearch.Keyspace, tried)

	var answered int64
	for _, w := range workers {
		_, a, failed := w.Stats().Snapshot()
		answered += a
		assert.Equal(t, int64(0), failed)
		assert.Contains(t, w.Stats().String(), "answered")
	}
	assert.Equal(t, int64(26), answered)
}

func TestDistributedCrackFindsKey(t *testing.T) {
	url := test.StartNATS(t)
	startWorkers(t, url, engine.Default(), 1)

	coord := NewCoordinator(connect(t, url), engine.Default())
	found, err := coord.Crack(context.Background(), "TVMKTYFJZV", "HELLO")
	require.NoError(t, err)
	assert.Len(t, found, 13)
	assert.Contains(t, found, types.Candidate{Setting1: 3, Setting2: 7, Setting3: 12, Decoded: "HELLOWORLD"})

	found, err = coord.Crack(context.Background(), "TVMKTYFJZV", "HELLOWORLDANDMORE")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDistributedCrackMachineMismatch(t *testing.T) {
	url := test.StartNATS(t)

	bank, err := rotor.NewBank([]string{rotor.Rotor2Pattern, rotor.Rotor1Pattern, rotor.Rotor3Pattern}, rotor.ReflectorPattern)
	require.NoError(t, err)
	startWorkers(t, url, engine.New(bank), 1)

	coord := NewCoordinator(connect(t, url), engine.Default())
	_, err = coord.Crack(context.Background(), "TVMKTYFJZV", "HELLO")
	assert.ErrorIs(t, err, errmsg.ErrMachineMismatch)
}

func TestDistributedCrackNoWorkers(t *testing.T) {
	url := test.StartNATS(t)

	coord := NewCoordinator(connect(t, url), engine.Default(), WithTimeout(2*time.Second))
	_, err := coord.Crack(context.Background(), "TVMKTYFJZV", "HELLO")
	assert.Error(t, err)
}

func TestDistributedCrackCancelled(t *testing.T) {
	url := test.StartNATS(t)
	startWorkers(t, url, engine.Default(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coord := NewCoordinator(connect(t, url), engine.Default())
	_, err := coord.Crack(ctx, "TVMKTYFJZV", "HELLO")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerFinishesShardOnShutdown(t *testing.T) {
	url := test.StartNATS(t)
	machine := engine.Default()

	w := NewWorker(connect(t, url), keysearch.New(machine))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopped := make(chan error, 1)
	go func() {
		stopped <- w.Listen(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	// Long enough that the shard is still running when the worker is stopped.
	cipher, err := machine.Convert(strings.Repeat("HELLOWORLD", 2000), 3, 7, 12)
	require.NoError(t, err)
	data, err := msgpack.Marshal(&types.ShardRequest{
		Ciphertext:  cipher,
		Fragment:    "HELLOWORLD",
		Setting1:    3,
		Fingerprint: machine.Fingerprint(),
	})
	require.NoError(t, err)

	client := connect(t, url)
	type reply struct {
		msg *nats.Msg
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		msg, err := client.Request(DefaultSubject, data, 30*time.Second)
		replies <- reply{msg, err}
	}()

	require.Eventually(t, func() bool {
		received, _, _ := w.Stats().Snapshot()
		return received == 1
	}, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-stopped)

	r := <-replies
	require.NoError(t, r.err)
	var resp types.ShardResponse
	require.NoError(t, msgpack.Unmarshal(r.msg.Data, &resp))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Candidates, types.Candidate{Setting1: 3, Setting2: 7, Setting3: 12, Decoded: strings.Repeat("HELLOWORLD", 2000)})

	_, answered, failed := w.Stats().Snapshot()
	assert.Equal(t, int64(1), answered)
	assert.Equal(t, int64(0), failed)
}

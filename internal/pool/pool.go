package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rubiojr/enigma/internal/log"
)

type Task struct {
	ID   int64
	Func func() error
}

// Pool runs submitted tasks on a fixed number of workers. The first task
// error is kept and returned by Stop; later errors are only logged.
type Pool struct {
	Tasks       chan Task
	NumWorkers  int
	WorkerGroup sync.WaitGroup

	nextID   atomic.Int64
	errOnce  sync.Once
	firstErr error
}

func NewPool(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		Tasks:      make(chan Task, 1000),
		NumWorkers: numWorkers,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.NumWorkers; i++ {
		p.WorkerGroup.Add(1)
		go func(workerID int) {
			defer p.WorkerGroup.Done()
			for task := range p.Tasks {
				err := task.Func()
				if err == nil {
					continue
				}
				p.errOnce.Do(func() { p.firstErr = err })
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				log.Errorf("Worker %d failed to process task %d: %v\n", workerID, task.ID, err)
			}
		}(i)
	}
}

// Stop waits for every submitted task to finish and returns the first error.
// Submit must not be called after Stop.
func (p *Pool) Stop() error {
	close(p.Tasks)
	p.WorkerGroup.Wait()
	return p.firstErr
}

func (p *Pool) Submit(f func() error) {
	t := Task{
		Func: f,
		ID:   p.nextID.Add(1),
	}
	p.Tasks <- t
}

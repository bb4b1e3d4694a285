package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/store"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// job is one unit of detached background work, keyed by the run it drives
type job struct {
	runID string
	fn    func(ctx context.Context)
}

// Pool executes detached scan and fix jobs on a bounded set of workers.
// The run record is the single source of truth for progress: jobs update
// it as they go, and a reaper fails runs whose heartbeat lease expired so
// an abandoned run cannot block its repository forever.
type Pool struct {
	cfg    config.WorkerConfig
	store  store.RunStore
	jobs   chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a worker pool over the given run store
func NewPool(cfg config.WorkerConfig, st store.RunStore) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = 10 * time.Minute
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Minute
	}
	return &Pool{
		cfg:   cfg,
		store: st,
		jobs:  make(chan job, cfg.QueueSize),
	}
}

// Start launches the workers and the stale-run reaper
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				util.Debug("Worker picked up job for run %s", j.runID)
				j.fn(ctx)
			}
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.reapLoop(ctx)
	}()

	util.Debug("Worker pool started (%d workers, queue %d)", p.cfg.Workers, p.cfg.QueueSize)
}

// Enqueue schedules a job without blocking. A full queue is an error the
// caller must surface; the run it was meant to drive will not progress.
func (p *Pool) Enqueue(runID string, fn func(ctx context.Context)) error {
	select {
	case p.jobs <- job{runID: runID, fn: fn}:
		return nil
	default:
		return fmt.Errorf("job queue is full (%d pending)", p.cfg.QueueSize)
	}
}

// Stop drains queued jobs, waits for running ones, and stops the reaper
func (p *Pool) Stop() {
	close(p.jobs)
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// StartHeartbeat periodically records liveness for a run until the
// returned stop function is called
func (p *Pool) StartHeartbeat(ctx context.Context, runID string, beat func(context.Context, string, time.Time) error) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(p.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if err := beat(ctx, runID, t.UTC()); err != nil {
					util.Warn("Heartbeat for run %s failed: %v", runID, err)
				}
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

func (p *Pool) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-p.cfg.LeaseTimeout)
			reaped, err := p.store.ReapStale(ctx, cutoff)
			if err != nil {
				util.Warn("Reaping stale runs failed: %v", err)
				continue
			}
			if reaped > 0 {
				util.Info("Reaped %d abandoned runs (heartbeat older than %v)", reaped, p.cfg.LeaseTimeout)
			}
		}
	}
}

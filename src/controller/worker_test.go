package controller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/store"
)

func TestPoolRunsEnqueuedJobs(t *testing.T) {
	st := store.NewMemoryStore()
	pool := newTestPool(t, st)

	var ran atomic.Int32
	done := make(chan struct{})
	require.NoError(t, pool.Enqueue("run-1", func(context.Context) {
		ran.Add(1)
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	assert.Equal(t, int32(1), ran.Load())
}

func TestPoolEnqueueFullQueue(t *testing.T) {
	st := store.NewMemoryStore()
	// Not started, so queued jobs are never drained.
	pool := NewPool(config.WorkerConfig{Workers: 1, QueueSize: 1}, st)

	require.NoError(t, pool.Enqueue("run-1", func(context.Context) {}))
	err := pool.Enqueue("run-2", func(context.Context) {})
	assert.Error(t, err)
}

func TestPoolHeartbeat(t *testing.T) {
	st := store.NewMemoryStore()
	pool := newTestPool(t, st)

	ctx := context.Background()
	run := model.NewAnalysisRun(1, "o/r", "main", "u")
	before := run.LastHeartbeat
	require.NoError(t, st.CreateAnalysisRun(ctx, run))

	stop := pool.StartHeartbeat(ctx, run.ID, st.HeartbeatAnalysisRun)
	defer stop()

	require.Eventually(t, func() bool {
		got, err := st.GetAnalysisRun(ctx, run.ID)
		return err == nil && got.LastHeartbeat.After(before)
	}, 2*time.Second, 10*time.Millisecond)

	// Stop is idempotent.
	stop()
	stop()
}

func TestPoolReapsAbandonedRuns(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	stale := model.NewAnalysisRun(1, "o/stale", "main", "u")
	stale.LastHeartbeat = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, st.CreateAnalysisRun(ctx, stale))

	pool := NewPool(config.WorkerConfig{
		Workers:           1,
		QueueSize:         1,
		HeartbeatInterval: time.Minute,
		LeaseTimeout:      time.Minute,
		ReapInterval:      20 * time.Millisecond,
	}, st)
	pool.Start()
	defer pool.Stop()

	require.Eventually(t, func() bool {
		got, err := st.GetAnalysisRun(ctx, stale.ID)
		return err == nil && got.Status == model.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	got, err := st.GetAnalysisRun(ctx, stale.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Error, "heartbeat expired")
}

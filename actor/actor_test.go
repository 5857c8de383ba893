package actor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestEngine() *Engine {
	return NewEngine(NewEngineConfig())
}

// barrier waits until every task submitted before it has executed.
func barrier(t *testing.T, h *Handle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.SendSync(ctx, func() error { return nil }))
}

func TestSendOrdering(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("order")

	const n = 100
	var got []int
	for i := 0; i < n; i++ {
		i := i
		require.NoError(t, h.Send(func() error {
			got = append(got, i)
			return nil
		}))
	}
	barrier(t, h)

	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, got[i])
	}
}

func TestSendSyncOutcomes(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("outcomes")
	ctx := context.Background()

	require.NoError(t, h.SendSync(ctx, func() error { return nil }))

	boom := errors.New("boom")
	err := h.SendSync(ctx, func() error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestPoisoningStopsExecution(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("poisoned")
	ctx := context.Background()

	boom := errors.New("boom")
	require.NoError(t, h.SendSync(ctx, func() error { return nil }))
	require.ErrorIs(t, h.SendSync(ctx, func() error { return boom }), boom)

	// The third task must never run, only observe the poisoned outcome.
	ran := false
	err := h.SendSync(ctx, func() error {
		ran = true
		return nil
	})
	require.True(t, ErrPoisoned.Has(err), "got %v", err)
	assert.False(t, ran)

	assert.Equal(t, Poisoned, h.State())
	require.ErrorIs(t, h.Err(), boom)

	// Fire-and-forget sends are rejected at send time by default.
	err = h.Send(func() error { return nil })
	require.True(t, ErrPoisoned.Has(err), "got %v", err)
}

func TestEnqueueWhenPoisonedPolicy(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("poisoned", WithEnqueueWhenPoisoned())
	ctx := context.Background()

	boom := errors.New("boom")
	require.ErrorIs(t, h.SendSync(ctx, func() error { return boom }), boom)

	// Sends still enqueue; the loop rejects each task at run time.
	require.NoError(t, h.Send(func() error { return nil }))

	ran := false
	err := h.SendSync(ctx, func() error {
		ran = true
		return nil
	})
	require.True(t, ErrPoisoned.Has(err), "got %v", err)
	assert.False(t, ran)
}

func TestPanicPoisons(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("panics")
	ctx := context.Background()

	err := h.SendSync(ctx, func() error { panic("kaboom") })
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "kaboom")
	assert.NotEmpty(t, perr.Stack)

	assert.Equal(t, Poisoned, h.State())
	require.True(t, ErrPoisoned.Has(h.SendSync(ctx, func() error { return nil })))
}

func TestMutualExclusion(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("exclusive")

	const producers = 8
	const perProducer = 200

	var active, violations, executed atomic.Int64
	var g errgroup.Group
	for w := 0; w < producers; w++ {
		clone := h.Clone()
		g.Go(func() error {
			defer clone.Release()
			for i := 0; i < perProducer; i++ {
				if err := clone.Send(func() error {
					if active.Add(1) > 1 {
						violations.Add(1)
					}
					executed.Add(1)
					active.Add(-1)
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	barrier(t, h)

	assert.Zero(t, violations.Load())
	assert.Equal(t, int64(producers*perProducer), executed.Load())
}

func TestGracefulKillRunsQueued(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("drain")

	gate := make(chan struct{})
	require.NoError(t, h.Send(func() error {
		<-gate
		return nil
	}))

	var executed atomic.Int64
	const queued = 50
	for i := 0; i < queued; i++ {
		require.NoError(t, h.Send(func() error {
			executed.Add(1)
			return nil
		}))
	}

	stopCtx := h.Kill()
	close(gate)

	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("actor did not stop")
	}
	assert.Equal(t, int64(queued), executed.Load())

	err := h.Send(func() error { return nil })
	require.True(t, ErrStopped.Has(err), "got %v", err)
}

func TestHardStopResolvesPending(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("hardstop")

	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, h.Send(func() error {
		close(started)
		<-gate
		return nil
	}))
	<-started

	outcome := make(chan error, 1)
	go func() {
		outcome <- h.SendSync(context.Background(), func() error { return nil })
	}()
	require.Eventually(t, func() bool {
		return h.proc.inbox.Len() > 0
	}, time.Second, time.Millisecond)

	stopCtx := h.Stop()
	close(gate)

	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("actor did not stop")
	}

	select {
	case err := <-outcome:
		require.True(t, ErrStopped.Has(err), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("pending reply was never resolved")
	}
}

func TestReleaseLastHandleStopsActor(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("refcounted")
	clone := h.Clone()

	var executed atomic.Int64
	require.NoError(t, clone.Send(func() error {
		executed.Add(1)
		return nil
	}))

	// Releasing one of two handles keeps the actor alive.
	h.Release()
	barrier(t, clone)
	require.NoError(t, clone.Send(func() error {
		executed.Add(1)
		return nil
	}))

	clone.Release()
	select {
	case <-clone.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("actor did not stop after last release")
	}
	assert.Equal(t, int64(2), executed.Load())
}

func TestSendSyncCancelDoesNotRetract(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("cancel")

	gate := make(chan struct{})
	require.NoError(t, h.Send(func() error {
		<-gate
		return nil
	}))

	ran := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	outcome := make(chan error, 1)
	go func() {
		outcome <- h.SendSync(ctx, func() error {
			close(ran)
			return nil
		})
	}()
	require.Eventually(t, func() bool {
		return h.proc.inbox.Len() > 0
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-outcome, context.Canceled)

	// The task was not rolled back: it still runs once the actor
	// gets to it, its outcome simply goes nowhere.
	close(gate)
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled task never ran")
	}
}

func TestSpawnContextCancelStopsActor(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	h := e.Spawn("scoped", WithContext(ctx))

	barrier(t, h)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("actor did not stop on context cancellation")
	}
}

func TestBoundedInboxBackpressure(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("bounded", WithBoundedInbox(1))
	ctx := context.Background()

	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, h.SendContext(ctx, func() error {
		close(started)
		<-gate
		return nil
	}))
	<-started

	// The consumer is busy, so this one occupies the single slot.
	require.NoError(t, h.Send(func() error { return nil }))

	// Non-blocking send on a full inbox fails fast.
	err := h.Send(func() error { return nil })
	require.True(t, ErrInboxFull.Has(err), "got %v", err)

	// Blocking sends from two producers wait for space, then complete.
	var executed atomic.Int64
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			return h.SendContext(ctx, func() error {
				executed.Add(1)
				return nil
			})
		})
	}

	// Nothing can land while the first task still blocks the loop.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, executed.Load())

	close(gate)
	require.NoError(t, g.Wait())
	barrier(t, h)
	assert.Equal(t, int64(2), executed.Load())
}

func TestRegistryLookup(t *testing.T) {
	e := newTestEngine()
	h := e.Spawn("worker", WithID("1"))

	pid := e.Registry.GetPID("worker", "1")
	require.NotNil(t, pid)
	assert.True(t, pid.Equals(h.PID()))

	stopCtx := h.Kill()
	<-stopCtx.Done()
	assert.Nil(t, e.Registry.GetPID("worker", "1"))
}

package actor

import (
	"context"
	"sync/atomic"
	"time"
)

// Handle is the shareable reference to a running actor and the only
// way to reach it. Handles are refcounted: Clone for every goroutine
// that keeps one, Release when done. Releasing the last handle shuts
// the actor down gracefully.
type Handle struct {
	proc     *process
	engine   *Engine
	refs     *atomic.Int64
	released atomic.Bool
}

func newHandle(e *Engine, proc *process) *Handle {
	refs := &atomic.Int64{}
	refs.Store(1)
	return &Handle{
		proc:   proc,
		engine: e,
		refs:   refs,
	}
}

func (h *Handle) PID() *PID { return h.proc.pid }

// State reports whether the actor is still Running or has been
// Poisoned by a failed task.
func (h *Handle) State() ActorState { return h.proc.state.load() }

// Err returns the failure that poisoned the actor, nil while running.
func (h *Handle) Err() error { return h.proc.state.err() }

// Done is closed once the actor has fully stopped and every pending
// reply has been resolved.
func (h *Handle) Done() <-chan struct{} { return h.proc.stopCtx.Done() }

// Send submits a task fire-and-forget style. A nil return means the
// task was accepted, not that it will succeed; failures surface on the
// event stream. Send never blocks: on a full bounded inbox it fails
// with ErrInboxFull.
func (h *Handle) Send(task Task) error {
	return h.submit(context.Background(), Envelope{task: task}, false)
}

// SendContext behaves like Send but blocks for mailbox space on a
// bounded inbox until ctx is done.
func (h *Handle) SendContext(ctx context.Context, task Task) error {
	return h.submit(ctx, Envelope{task: task}, true)
}

// SendSync submits the task and blocks until it has run, returning
// its outcome: nil on success, the task's own error on failure, an
// ErrPoisoned outcome when a previous task broke the actor, or
// ErrStopped when the actor shut down first. Cancelling ctx abandons
// the wait but does not retract the task.
func (h *Handle) SendSync(ctx context.Context, task Task) error {
	reply := newPendingReply()
	if err := h.submit(ctx, Envelope{task: task, reply: reply}, true); err != nil {
		return err
	}
	select {
	case outcome := <-reply.ch:
		return outcome
	case <-ctx.Done():
		return ctx.Err()
	case <-h.proc.stopCtx.Done():
		// The loop resolves replies before signalling the stop
		// context, so check the slot once more.
		select {
		case outcome := <-reply.ch:
			return outcome
		default:
			return ErrStopped.New("actor %s stopped before task ran", h.proc.pid)
		}
	}
}

func (h *Handle) submit(ctx context.Context, env Envelope, blocking bool) error {
	if h.proc.stopping() {
		return h.deadLetter(env)
	}
	if !h.proc.EnqueueWhenPoisoned && h.proc.state.poisoned() {
		return poisonedOutcome(h.proc.pid, h.proc.state.err())
	}
	var err error
	if blocking {
		err = h.proc.inbox.SendContext(ctx, env)
	} else {
		err = h.proc.inbox.Send(env)
	}
	if err != nil && ErrStopped.Has(err) {
		return h.deadLetter(env)
	}
	return err
}

func (h *Handle) deadLetter(env Envelope) error {
	h.engine.broadcast(EventDeadLetter{
		PID:       h.proc.pid,
		Timestamp: time.Now(),
	})
	err := ErrStopped.New("actor %s has shut down", h.proc.pid)
	env.resolve(err)
	return err
}

// Clone returns another reference to the same actor. It never spawns
// a new execution loop.
func (h *Handle) Clone() *Handle {
	h.refs.Add(1)
	return &Handle{
		proc:   h.proc,
		engine: h.engine,
		refs:   h.refs,
	}
}

// Release drops this reference. When the last handle is released the
// actor is killed gracefully: queued tasks still run, then the loop
// stops. Release on an already released handle is a no-op.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.refs.Add(-1) == 0 {
		h.Kill()
	}
}

// Kill shuts the actor down gracefully: everything accepted before
// the kill still runs (or is rejected if the actor is poisoned), then
// the loop stops. The returned context is done once shutdown
// completed.
func (h *Handle) Kill() context.Context {
	return h.proc.sendKill(true)
}

// Stop shuts the actor down immediately. The running task finishes,
// every other queued task resolves with an ErrStopped outcome instead
// of running. The returned context is done once shutdown completed.
func (h *Handle) Stop() context.Context {
	return h.proc.sendKill(false)
}

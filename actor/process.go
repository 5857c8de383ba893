package actor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/DataDog/gostackparse"
)

// Envelope carries one task through the inbox. Exactly one of task
// and kill is set.
type Envelope struct {
	task  Task
	reply *pendingReply
	kill  *killRequest
}

// resolve delivers the outcome to a waiting SendSync caller, if any.
func (e Envelope) resolve(err error) {
	if e.reply != nil {
		e.reply.resolve(err)
	}
}

type killRequest struct {
	graceful bool
}

// Processor is an interface that abstracts the way a process behaves.
type Processor interface {
	Start()
	Invoke([]Envelope)
	PID() *PID
}

// process is the single serialized consumer of one actor. Its Invoke
// method only ever runs on one goroutine at a time (the inbox
// guarantees that), so everything it touches needs no locking.
type process struct {
	pid    *PID
	engine *Engine
	inbox  Inboxer
	state  *state

	killSent    atomic.Bool
	interrupted atomic.Bool

	stopCtx context.Context
	stopFn  context.CancelFunc

	Opts
}

func newProcess(e *Engine, opts Opts) *process {
	pid := NewPID(e.address, opts.Kind+pidSep+opts.ID)
	stopCtx, stopFn := context.WithCancel(context.Background())
	var inbox Inboxer
	if opts.BoundedInbox {
		inbox = NewBoundedInbox(opts.InboxSize)
	} else {
		inbox = NewInbox(opts.InboxSize)
	}
	return &process{
		pid:     pid,
		engine:  e,
		inbox:   inbox,
		state:   &state{},
		stopCtx: stopCtx,
		stopFn:  stopFn,
		Opts:    opts,
	}
}

func (p *process) PID() *PID { return p.pid }

func (p *process) Start() {
	p.engine.broadcast(EventActorStarted{
		PID:       p.pid,
		Timestamp: time.Now(),
	})
	if p.Context != nil && p.Context.Done() != nil {
		// Tie the actor's lifetime to the spawn context: cancellation
		// is a hard stop.
		go func() {
			select {
			case <-p.Context.Done():
				p.sendKill(false)
			case <-p.stopCtx.Done():
			}
		}()
	}
	p.inbox.Start(p)
}

func (p *process) Invoke(envelopes []Envelope) {
	for i, env := range envelopes {
		if env.kill != nil {
			// A hard stop has already set the interrupted flag, so the
			// batch remainder resolves with ErrStopped instead of running.
			for _, rest := range envelopes[i+1:] {
				p.invokeEnvelope(rest)
			}
			p.cleanUp(env.kill.graceful)
			return
		}
		p.invokeEnvelope(env)
	}
	p.engine.metrics.observeInboxDepth(p.pid, p.inbox.Len())
}

// invokeEnvelope runs a single task, or short-circuits it when the
// actor can no longer execute. Every task resolves exactly once.
func (p *process) invokeEnvelope(env Envelope) {
	if env.kill != nil {
		return
	}
	if p.interrupted.Load() {
		env.resolve(ErrStopped.New("actor %s stopping", p.pid))
		return
	}
	if p.state.poisoned() {
		p.rejectEnvelope(env)
		return
	}
	start := time.Now()
	err := p.runTask(env.task)
	p.engine.metrics.observeTask(time.Since(start), err)
	if err != nil {
		p.state.poison(err)
		p.engine.metrics.observePoisoned()
		ev := EventActorPoisoned{
			PID:       p.pid,
			Timestamp: time.Now(),
			Err:       err,
		}
		if perr, ok := err.(*PanicError); ok {
			ev.Stacktrace = perr.Stack
		}
		p.engine.broadcast(ev)
	}
	env.resolve(err)
}

func (p *process) rejectEnvelope(env Envelope) {
	p.engine.metrics.observeRejected()
	p.engine.broadcast(EventTaskRejected{
		PID:       p.pid,
		Timestamp: time.Now(),
		Cause:     p.state.err(),
	})
	env.resolve(poisonedOutcome(p.pid, p.state.err()))
}

// runTask invokes the task with panic containment. A panicking task
// becomes a *PanicError failure carrying a cleaned stack trace.
func (p *process) runTask(task Task) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{
				Value: v,
				Stack: cleanTrace(debug.Stack()),
			}
		}
	}()
	return task()
}

// cleanUp is the terminal step of the loop. It drains the inbox so no
// pending reply is left unresolved, then unregisters and signals the
// stop context.
func (p *process) cleanUp(graceful bool) {
	leftovers := p.inbox.Drain()
	for _, env := range leftovers {
		if env.kill != nil {
			continue
		}
		switch {
		case graceful && !p.interrupted.Load():
			p.invokeEnvelope(env)
		case p.state.poisoned():
			p.rejectEnvelope(env)
		default:
			env.resolve(ErrStopped.New("actor %s stopped before task ran", p.pid))
		}
	}
	p.engine.Registry.Remove(p.pid)
	p.engine.metrics.forgetActor(p.pid, p.state.poisoned())
	p.engine.broadcast(EventActorStopped{
		PID:       p.pid,
		Timestamp: time.Now(),
	})
	p.stopFn()
}

// sendKill delivers the shutdown request through the inbox so it
// queues behind work already accepted. Repeat calls are no-ops; a hard
// stop escalates a pending graceful one.
func (p *process) sendKill(graceful bool) context.Context {
	if !graceful {
		p.interrupted.Store(true)
	}
	if p.killSent.CompareAndSwap(false, true) {
		env := Envelope{kill: &killRequest{graceful: graceful}}
		go func() {
			// Blocking send: a bounded inbox may be full, and the kill
			// must not be droppable.
			_ = p.inbox.SendContext(context.Background(), env)
		}()
	}
	return p.stopCtx
}

func (p *process) stopping() bool {
	return p.killSent.Load()
}

func cleanTrace(stack []byte) []byte {
	goroutines, err := gostackparse.Parse(bytes.NewReader(stack))
	if err != nil {
		slog.Error("failed to parse stack trace")
		return stack
	}
	if len(goroutines) != 1 {
		slog.Error("expected only one goroutine", "goroutines", len(goroutines))
		return stack
	}
	// Skip the recover/runTask frames.
	goroutines[0].Stack = goroutines[0].Stack[4:]
	buf := bytes.NewBuffer(nil)
	_, _ = fmt.Fprintf(buf, "goroutine %d [%s]\n", goroutines[0].ID, goroutines[0].State)
	for _, frame := range goroutines[0].Stack {
		_, _ = fmt.Fprintf(buf, "%s\n", frame.Func)
		_, _ = fmt.Fprintf(buf, "\t%s:%d\n", frame.File, frame.Line)
	}
	return buf.Bytes()
}

// poisonedOutcome is what a task observes when it is rejected instead
// of run.
func poisonedOutcome(pid *PID, cause error) error {
	if cause == nil {
		return ErrPoisoned.New("actor %s", pid)
	}
	return ErrPoisoned.New("actor %s: %v", pid, cause)
}

package actor

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/taskwell/actors/ringbuffer"
)

const (
	defaultThroughput = 300
	envelopeBatchSize = 1024 * 4
)

const (
	inboxStopped int32 = iota
	inboxStarting
	inboxIdle
	inboxRunning
)

// Inboxer is the mailbox of one actor: an ordered multi-producer,
// single-consumer queue of envelopes.
type Inboxer interface {
	Start(Processor)
	Stop() error
	// Send enqueues without blocking. It fails with ErrStopped after
	// Stop, or with ErrInboxFull on a full bounded inbox.
	Send(Envelope) error
	// SendContext blocks for space on a bounded inbox until ctx is
	// done. On an unbounded inbox it behaves like Send.
	SendContext(context.Context, Envelope) error
	// Drain stops intake and returns whatever was still queued, in
	// FIFO order.
	Drain() []Envelope
	Len() int64
}

// Inbox is the default unbounded mailbox. Producers push onto a
// growable ring buffer; a scheduler guarantees at most one goroutine
// is consuming at any time, which is what serializes task execution.
type Inbox struct {
	buf        *ringbuffer.RingBuffer[Envelope]
	proc       Processor
	scheduler  Scheduler
	procStatus atomic.Int32
}

func NewInbox(size int) *Inbox {
	inbox := &Inbox{
		buf:       ringbuffer.New[Envelope](int64(size)),
		scheduler: NewScheduler(defaultThroughput),
	}
	inbox.procStatus.Store(inboxStopped)
	return inbox
}

func (in *Inbox) Start(proc Processor) {
	// Transition through "starting" so there is no race on in.proc.
	if in.procStatus.CompareAndSwap(inboxStopped, inboxStarting) {
		in.proc = proc
		in.procStatus.Swap(inboxIdle)
		in.schedule()
	}
}

func (in *Inbox) Stop() error {
	in.procStatus.Swap(inboxStopped)
	return nil
}

func (in *Inbox) Drain() []Envelope {
	in.procStatus.Swap(inboxStopped)
	return in.buf.PopAll()
}

func (in *Inbox) Len() int64 {
	return in.buf.Len()
}

func (in *Inbox) Send(env Envelope) error {
	if in.procStatus.Load() == inboxStopped {
		return ErrStopped.New("inbox closed")
	}
	in.buf.Push(env)
	in.schedule()
	return nil
}

func (in *Inbox) SendContext(_ context.Context, env Envelope) error {
	return in.Send(env)
}

func (in *Inbox) schedule() {
	if in.procStatus.CompareAndSwap(inboxIdle, inboxRunning) {
		in.scheduler.Schedule(in.process)
	}
}

func (in *Inbox) process() {
	in.run()
	if in.procStatus.CompareAndSwap(inboxRunning, inboxIdle) && in.buf.Len() > 0 {
		// Envelopes may have been pushed between the last pop and the
		// transition to "idle". If so, schedule again.
		in.schedule()
	}
}

func (in *Inbox) run() {
	i, throughput := 0, in.scheduler.Throughput()
	for in.procStatus.Load() != inboxStopped {
		if i > throughput {
			i = 0
			runtime.Gosched()
		}
		i++
		if envelopes, ok := in.buf.PopN(envelopeBatchSize); ok {
			in.proc.Invoke(envelopes)
		} else {
			return
		}
	}
}

type Scheduler interface {
	Schedule(func())
	Throughput() int
}

type goScheduler int

func NewScheduler(throughput int) Scheduler {
	return goScheduler(throughput)
}

func (goScheduler) Schedule(fn func()) {
	go fn()
}

func (s goScheduler) Throughput() int {
	return int(s)
}

package actor

import (
	"context"
	"sync"
	"sync/atomic"
)

// BoundedInbox is a fixed-capacity mailbox. A full inbox pushes back
// on producers: Send fails fast with ErrInboxFull while SendContext
// blocks until space frees up or the context is done.
type BoundedInbox struct {
	ch       chan Envelope
	stopCh   chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	len      atomic.Int64
}

func NewBoundedInbox(capacity int) *BoundedInbox {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedInbox{
		ch:     make(chan Envelope, capacity),
		stopCh: make(chan struct{}),
	}
}

func (in *BoundedInbox) Start(proc Processor) {
	go in.consume(proc)
}

func (in *BoundedInbox) consume(proc Processor) {
	for {
		select {
		case <-in.stopCh:
			return
		case env := <-in.ch:
			in.len.Add(-1)
			proc.Invoke([]Envelope{env})
			if in.stopped.Load() {
				return
			}
		}
	}
}

func (in *BoundedInbox) Stop() error {
	in.stopped.Store(true)
	in.stopOnce.Do(func() { close(in.stopCh) })
	return nil
}

// Drain stops intake and empties the channel. It must only be called
// from the consumer side, never while the consumer is still selecting
// on the channel.
func (in *BoundedInbox) Drain() []Envelope {
	_ = in.Stop()
	var envelopes []Envelope
	for {
		select {
		case env := <-in.ch:
			in.len.Add(-1)
			envelopes = append(envelopes, env)
		default:
			return envelopes
		}
	}
}

func (in *BoundedInbox) Len() int64 {
	return in.len.Load()
}

func (in *BoundedInbox) Send(env Envelope) error {
	if in.stopped.Load() {
		return ErrStopped.New("inbox closed")
	}
	select {
	case <-in.stopCh:
		return ErrStopped.New("inbox closed")
	case in.ch <- env:
		in.len.Add(1)
		return nil
	default:
		return ErrInboxFull.New("capacity %d", cap(in.ch))
	}
}

func (in *BoundedInbox) SendContext(ctx context.Context, env Envelope) error {
	if in.stopped.Load() {
		return ErrStopped.New("inbox closed")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-in.stopCh:
		return ErrStopped.New("inbox closed")
	case in.ch <- env:
		in.len.Add(1)
		return nil
	}
}

package actor

import "context"

const defaultInboxSize = 1024

type Opts struct {
	ID   string
	Kind string
	// InboxSize is the initial ring buffer size, or the hard capacity
	// when BoundedInbox is set.
	InboxSize    int
	BoundedInbox bool
	// EnqueueWhenPoisoned makes sends to a poisoned actor enqueue as
	// usual; the loop then rejects each task with an ErrPoisoned
	// outcome. The default is to fail at send time instead.
	EnqueueWhenPoisoned bool
	Context             context.Context
}

type OptFunc func(*Opts)

func DefaultOpts() Opts {
	return Opts{
		InboxSize: defaultInboxSize,
		Context:   context.Background(),
	}
}

func WithID(id string) OptFunc {
	return func(opts *Opts) {
		opts.ID = id
	}
}

func WithInboxSize(size int) OptFunc {
	return func(opts *Opts) {
		opts.InboxSize = size
	}
}

// WithBoundedInbox caps the mailbox at the given capacity. Producers
// get backpressure: SendContext blocks for space, Send fails fast
// with ErrInboxFull.
func WithBoundedInbox(capacity int) OptFunc {
	return func(opts *Opts) {
		opts.BoundedInbox = true
		opts.InboxSize = capacity
	}
}

// WithEnqueueWhenPoisoned switches the poisoned-send policy from
// reject-at-send to enqueue-then-reject.
func WithEnqueueWhenPoisoned() OptFunc {
	return func(opts *Opts) {
		opts.EnqueueWhenPoisoned = true
	}
}

// WithContext ties the actor's lifetime to ctx; cancellation is a
// hard stop.
func WithContext(ctx context.Context) OptFunc {
	return func(opts *Opts) {
		opts.Context = ctx
	}
}

package actor

import "sync"

// pendingReply is the one-shot slot a SendSync caller blocks on. The
// execution loop writes it exactly once; later writes are dropped, so
// a task outcome can never be delivered twice.
type pendingReply struct {
	ch   chan error
	once sync.Once
}

func newPendingReply() *pendingReply {
	return &pendingReply{
		ch: make(chan error, 1),
	}
}

func (r *pendingReply) resolve(err error) {
	r.once.Do(func() {
		r.ch <- err
	})
}

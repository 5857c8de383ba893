package actor

import "sync/atomic"

// ActorState is the lifecycle flag of an actor. It starts Running and
// latches to Poisoned when a task fails. There is no transition back.
type ActorState int32

const (
	Running ActorState = iota
	Poisoned
)

func (s ActorState) String() string {
	if s == Poisoned {
		return "poisoned"
	}
	return "running"
}

// state holds the flag together with the failure that caused the
// poisoning. The execution loop is the only writer; producers read it
// on the submission path.
type state struct {
	flag  atomic.Int32
	cause atomic.Pointer[error]
}

func (s *state) load() ActorState {
	return ActorState(s.flag.Load())
}

func (s *state) poisoned() bool {
	return s.load() == Poisoned
}

// poison latches the state. Only the first failure is retained, later
// calls are no-ops and report false.
func (s *state) poison(err error) bool {
	if !s.flag.CompareAndSwap(int32(Running), int32(Poisoned)) {
		return false
	}
	s.cause.Store(&err)
	return true
}

// err returns the retained failure, nil while running.
func (s *state) err() error {
	if p := s.cause.Load(); p != nil {
		return *p
	}
	return nil
}

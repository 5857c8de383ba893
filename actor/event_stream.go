package actor

import (
	"context"
	"log/slog"
)

// eventStream is the state of the engine's event stream actor. It is
// only ever touched from inside that actor's tasks, so it needs no
// locking.
type eventStream struct {
	subs map[int64]func(Event)
}

func newEventStream() *eventStream {
	return &eventStream{
		subs: make(map[int64]func(Event)),
	}
}

// publish logs the event if it chooses to and fans it out to all
// subscribers.
func (s *eventStream) publish(ev Event) {
	if eventLogger, ok := ev.(EventLogger); ok {
		level, msg, attrs := eventLogger.Log()
		slog.Log(context.Background(), level, msg, attrs...)
	}
	for _, fn := range s.subs {
		fn(ev)
	}
}

func (s *eventStream) subscribe(id int64, fn func(Event)) {
	s.subs[id] = fn
}

func (s *eventStream) unsubscribe(id int64) {
	delete(s.subs, id)
}

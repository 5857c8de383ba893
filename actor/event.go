package actor

import (
	"log/slog"
	"time"
)

// Event is a runtime notification broadcast over the engine's event
// stream. This is the only place the outcome of fire-and-forget tasks
// is observable.
type Event interface{}

// EventLogger is an interface that the various events can choose to
// implement. If they do, the event stream will log these events to
// slog.
type EventLogger interface {
	Log() (slog.Level, string, []any)
}

// EventActorStarted is broadcast each time an actor is spawned and
// its execution loop activated.
type EventActorStarted struct {
	PID       *PID
	Timestamp time.Time
}

func (e EventActorStarted) Log() (slog.Level, string, []any) {
	return slog.LevelDebug, "Actor started.", []any{"pid", e.PID}
}

// EventActorStopped is broadcast each time an execution loop
// terminates, after every pending reply has been resolved.
type EventActorStopped struct {
	PID       *PID
	Timestamp time.Time
}

func (e EventActorStopped) Log() (slog.Level, string, []any) {
	return slog.LevelDebug, "Actor stopped.", []any{"pid", e.PID}
}

// EventActorPoisoned is broadcast when a task failure latches the
// actor into its terminal poisoned state. Stacktrace is set when the
// failure was a contained panic.
type EventActorPoisoned struct {
	PID        *PID
	Timestamp  time.Time
	Err        error
	Stacktrace []byte
}

func (e EventActorPoisoned) Log() (slog.Level, string, []any) {
	attrs := []any{"pid", e.PID, "err", e.Err}
	if len(e.Stacktrace) > 0 {
		attrs = append(attrs, "stack", string(e.Stacktrace))
	}
	return slog.LevelError, "Actor poisoned.", attrs
}

// EventTaskRejected is broadcast for every task short-circuited on a
// poisoned actor instead of running.
type EventTaskRejected struct {
	PID       *PID
	Timestamp time.Time
	Cause     error
}

func (e EventTaskRejected) Log() (slog.Level, string, []any) {
	return slog.LevelWarn, "Task rejected, actor poisoned.", []any{"pid", e.PID, "cause", e.Cause}
}

// EventDeadLetter is broadcast when a task is submitted to an actor
// that has already shut down.
type EventDeadLetter struct {
	PID       *PID
	Timestamp time.Time
}

func (e EventDeadLetter) Log() (slog.Level, string, []any) {
	return slog.LevelWarn, "Task sent to stopped actor.", []any{"pid", e.PID}
}

// EventActorDuplicateID is published if we try to register the same
// kind and id twice.
type EventActorDuplicateID struct {
	PID *PID
}

func (e EventActorDuplicateID) Log() (slog.Level, string, []any) {
	return slog.LevelError, "Actor name already exists.", []any{"pid", e.PID}
}

package actor

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine owns the registry and the event stream shared by the actors
// spawned through it. Most programs use the package-level Spawn and
// never touch an Engine directly.
type Engine struct {
	Registry *Registry
	address  string
	metrics  *engineMetrics
	stream   *Handle
	events   *eventStream
	subID    atomic.Int64
}

// EngineConfig holds the configuration of the engine.
type EngineConfig struct {
	registerer prometheus.Registerer
}

// NewEngineConfig returns a new default EngineConfig.
func NewEngineConfig() EngineConfig {
	return EngineConfig{}
}

// WithMetrics registers the engine's prometheus collectors with the
// given registerer.
func (cfg EngineConfig) WithMetrics(reg prometheus.Registerer) EngineConfig {
	cfg.registerer = reg
	return cfg
}

// NewEngine returns a new actor Engine given an EngineConfig.
func NewEngine(cfg EngineConfig) *Engine {
	e := new(Engine)
	e.Registry = newRegistry(e)
	e.address = LocalLookupAddr
	if cfg.registerer != nil {
		e.metrics = newEngineMetrics(cfg.registerer)
	}
	e.events = newEventStream()
	// The stream is itself an actor; its state is only touched by
	// tasks running on it.
	e.stream = e.Spawn("event_stream", WithID("main"))
	return e
}

// Spawn creates a new actor in Running state with an empty inbox and
// starts its execution loop. The returned handle holds the first
// reference.
func (e *Engine) Spawn(kind string, optFns ...OptFunc) *Handle {
	opts := DefaultOpts()
	opts.Kind = kind
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Kind == "" {
		opts.Kind = "actor"
	}
	// check if we got an ID, generate otherwise
	if opts.ID == "" {
		opts.ID = strconv.Itoa(rand.Intn(math.MaxInt))
	}
	proc := newProcess(e, opts)
	e.Registry.add(proc)
	return newHandle(e, proc)
}

// Address returns the address of the actor engine.
func (e *Engine) Address() string {
	return e.address
}

// Subscribe registers fn for every event broadcast on this engine.
// fn runs on the event stream's own actor, so it must not block for
// long. The returned function cancels the subscription.
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	id := e.subID.Add(1)
	events := e.events
	_ = e.stream.Send(func() error {
		events.subscribe(id, fn)
		return nil
	})
	return func() {
		_ = e.stream.Send(func() error {
			events.unsubscribe(id)
			return nil
		})
	}
}

// broadcast publishes the event on the event stream, notifying all
// subscribers. Events raised before the stream actor exists (its own
// lifecycle events) are dropped. It writes to the stream's inbox
// directly: going through the handle would dead-letter, and a dead
// letter broadcasts again.
func (e *Engine) broadcast(ev Event) {
	if e.stream == nil {
		return
	}
	events := e.events
	_ = e.stream.proc.inbox.Send(Envelope{task: func() error {
		events.publish(ev)
		return nil
	}})
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the shared engine used by the package-level Spawn,
// creating it on first use.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine(NewEngineConfig())
	})
	return defaultEngine
}

// Spawn creates an actor on the default engine.
func Spawn(kind string, optFns ...OptFunc) *Handle {
	return Default().Spawn(kind, optFns...)
}

package actor

import "sync"

// Registry tracks the live processes of one engine, keyed by the
// xxh3 hash of their PID.
type Registry struct {
	mu     sync.RWMutex
	lookup map[uint64]Processor
	engine *Engine
}

func newRegistry(e *Engine) *Registry {
	return &Registry{
		lookup: make(map[uint64]Processor, 1024),
		engine: e,
	}
}

// GetPID returns the process id associated with the given kind and
// id. Returns nil if the process was not found.
func (r *Registry) GetPID(kind, id string) *PID {
	proc := r.get(NewPID(r.engine.address, kind+pidSep+id))
	if proc != nil {
		return proc.PID()
	}
	return nil
}

// Len reports the number of live actors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lookup)
}

func (r *Registry) get(pid *PID) Processor {
	if pid == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup[pid.lookupKey()]
}

func (r *Registry) add(proc Processor) {
	key := proc.PID().lookupKey()
	r.mu.Lock()
	if _, ok := r.lookup[key]; ok {
		r.mu.Unlock()
		r.engine.broadcast(EventActorDuplicateID{PID: proc.PID()})
		r.mu.Lock()
	}
	r.lookup[key] = proc
	r.mu.Unlock()
	proc.Start()
}

// Remove removes the given PID from the registry.
func (r *Registry) Remove(pid *PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lookup, pid.lookupKey())
}

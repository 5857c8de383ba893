package actor

import "github.com/zeebo/xxh3"

const pidSep = "/"

// LocalLookupAddr is the address of every actor in this runtime.
const LocalLookupAddr = "local"

// PID identifies a spawned actor.
type PID struct {
	Address string
	ID      string
}

// NewPID returns a new process ID given an address and an id.
func NewPID(addr, id string) *PID {
	return &PID{
		Address: addr,
		ID:      id,
	}
}

func (pid *PID) String() string {
	return pid.Address + pidSep + pid.ID
}

func (pid *PID) Equals(other *PID) bool {
	return pid.Address == other.Address && pid.ID == other.ID
}

// lookupKey is the registry key for this PID.
func (pid *PID) lookupKey() uint64 {
	key := []byte(pid.Address)
	key = append(key, pid.ID...)
	return xxh3.Hash(key)
}

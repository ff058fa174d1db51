package importer

import (
	"sync"
	"sync/atomic"
)

// State captures the state of an Importer: Idle, Importing, or Shutdown
type State uint32

const (
	// Idle is the state in which the importer waits for the next cycle.
	Idle State = iota
	// Importing is the state in which a cycle is running.
	Importing
	// Shutdown is the state in which the importer no longer runs cycles and
	// has closed its stores.
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Importing:
		return "Importing"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
	wg    sync.WaitGroup
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// compareAndSetState moves from old to s, unless another goroutine changed
// the state in between.
func (b *state) compareAndSetState(old, s State) bool {
	stateAddr := (*uint32)(&b.state)
	return atomic.CompareAndSwapUint32(stateAddr, uint32(old), uint32(s))
}

// Start a goroutine and add it to waitgroup
func (b *state) goFunc(f func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		f()
	}()
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}

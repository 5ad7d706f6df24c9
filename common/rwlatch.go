package common

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// ReaderWriterLatch is the latch type used by each Page's latch and the hash
// index's table_latch (the BPM, replacer and log manager guard their state
// with a plain sync.Mutex). Modeled as an interface, rather than a bare
// sync.RWMutex, so a latch can be swapped for a detecting or dummy variant
// without touching call sites.
type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

// deadlockLatch backs every production latch with go-deadlock's RWMutex,
// which panics with the offending goroutines' stacks on a detected
// lock-order violation instead of hanging forever. The spec's lock order
// (hash index -> BPM -> page -> replacer -> log manager) is documented,
// not mechanically enforced; this is the mechanical backstop.
type deadlockLatch struct {
	mu deadlock.RWMutex
}

func NewRWLatch() ReaderWriterLatch {
	return &deadlockLatch{}
}

func (l *deadlockLatch) WLock()   { l.mu.Lock() }
func (l *deadlockLatch) WUnlock() { l.mu.Unlock() }
func (l *deadlockLatch) RLock()   { l.mu.RLock() }
func (l *deadlockLatch) RUnlock() { l.mu.RUnlock() }

// dummyLatch is a no-op latch for single-goroutine tests and tools where
// contention is impossible and the deadlock detector's bookkeeping would
// only add noise.
type dummyLatch struct{}

func NewDummyLatch() ReaderWriterLatch { return dummyLatch{} }

func (dummyLatch) WLock()   {}
func (dummyLatch) WUnlock() {}
func (dummyLatch) RLock()   {}
func (dummyLatch) RUnlock() {}

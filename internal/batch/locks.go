package batch

import (
	"sync"

	"github.com/google/uuid"
)

// keyedLocks serializes outcome handling per batch so counter updates and the
// completion check for one batch never interleave. Entries are a mutex each
// and the process handles a bounded number of batches, so they are not reaped.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire locks the mutex for key and returns the matching unlock.
func (k *keyedLocks) Acquire(key uuid.UUID) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

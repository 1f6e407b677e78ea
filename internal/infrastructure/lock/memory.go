// Package lock provides keyed mutual exclusion used to serialize work on one
// invoice or one tenant. The memory backend covers a single process; the
// redis backend extends it across instances.
package lock

import (
	"context"
	"sync"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
)

type keyEntry struct {
	ch   chan struct{} // buffered(1); holding the slot means holding the lock
	refs int
}

// MemoryLocker is an in-process keyed mutex. Entries are dropped when the
// last holder or waiter leaves, so the map only holds contended keys.
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*keyEntry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{keys: make(map[string]*keyEntry)}
}

// Lock waits for key or until ctx is done
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireEntry(key)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseEntry(key, e)
		})
	}, nil
}

// Held returns the number of keys currently held or waited on
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *MemoryLocker) acquireEntry(key string) *keyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.keys[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) releaseEntry(key string, e *keyEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

var _ tx.Locker = (*MemoryLocker)(nil)

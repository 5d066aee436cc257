package application

import "sync"

// Locker serializes work per order. Entries are dropped once no caller holds them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*orderLock
}

type orderLock struct {
	mu      sync.Mutex
	waiters int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*orderLock)}
}

// Lock blocks until the caller owns the order and returns the release func.
func (l *Locker) Lock(orderID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &orderLock{}
		l.locks[orderID] = entry
	}
	entry.waiters++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

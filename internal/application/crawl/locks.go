package crawl

import "sync"

// scopeLocks is a fail-fast mutex map keyed by tenant or product id. Entries
// are created lazily and never evicted; the map is bounded by the number of
// scopes that ever ran. Acquisition never queues: a held lock means a second
// run is refused immediately.
type scopeLocks struct {
	scope string
	mu    sync.Mutex
	held  map[int]bool
}

func newScopeLocks(scope string) *scopeLocks {
	return &scopeLocks{scope: scope, held: make(map[int]bool)}
}

// Acquire takes the lock for id or fails with AlreadyRunningError
func (l *scopeLocks) Acquire(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return NewAlreadyRunningError(l.scope, id)
	}
	l.held[id] = true
	return nil
}

// Release frees the lock for id
func (l *scopeLocks) Release(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}

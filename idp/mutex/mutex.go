// Package mutex provides a lock per key, used to serialize access to the
// same backing file from several store values in one process.
package mutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

type Keyed[K comparable] struct {
	mu    sync.Mutex
	table map[K]*entry
}

func (m *Keyed[K]) acquire(key K) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.table == nil {
		m.table = make(map[K]*entry)
	}
	e, ok := m.table[key]
	if !ok {
		e = &entry{}
		m.table[key] = e
	}
	e.refs++
	return e
}

func (m *Keyed[K]) release(key K, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.table, key)
	}
}

// Lock blocks until key is free and returns the matching unlock function.
func (m *Keyed[K]) Lock(key K) (unlock func()) {
	e := m.acquire(key)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.release(key, e)
	}
}

// Len reports how many keys are currently held or waited on.
func (m *Keyed[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

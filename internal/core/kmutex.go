package core

import "sync"

// KeyedMutex serializes critical sections per dynamic key. The document
// sync engine holds a key's lock across its fetch-compare-write sequence;
// different keys never contend. Idle entries are dropped so the map does
// not grow with every key ever seen.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*kmEntry
}

type kmEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*kmEntry)}
}

// Lock blocks until the key's lock is held and returns the release func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &kmEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

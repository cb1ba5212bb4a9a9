package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	const workers = 16

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("doc1")
			defer unlock()
			// Unsynchronized increment; the keyed lock is the only
			// thing keeping this race-free.
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	<-done // must not deadlock while "a" is held
	unlockA()
}

func TestKeyedMutexDropsIdleEntries(t *testing.T) {
	km := NewKeyedMutex()
	unlock := km.Lock("doc1")
	assert.Equal(t, 1, km.size())
	unlock()
	assert.Equal(t, 0, km.size())
}

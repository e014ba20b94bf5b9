package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_ReclaimsIdleEntries(t *testing.T) {
	km := newKeyedMutex()

	unlock := km.Lock("ROOM01")
	km.mu.Lock()
	held := len(km.locks)
	km.mu.Unlock()
	assert.Equal(t, 1, held)

	unlock()
	km.mu.Lock()
	idle := len(km.locks)
	km.mu.Unlock()
	assert.Equal(t, 0, idle, "uncontended entries must be dropped")
}

func TestKeyedMutex_LinearizesPerKey(t *testing.T) {
	km := newKeyedMutex()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("ROOM01")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)

	km.mu.Lock()
	remaining := len(km.locks)
	km.mu.Unlock()
	assert.Equal(t, 0, remaining)
}

package app

import (
	"sync"

	"github.com/dkeye/auxroom/internal/domain"
)

// keyedMutex hands out one mutex per room code so mutations on a room
// are linearized without serializing unrelated rooms. Entries are
// reference-counted and dropped once uncontended, so expired rooms do
// not pin map entries forever.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[domain.RoomCode]*lockEntry
}

type lockEntry struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[domain.RoomCode]*lockEntry)}
}

func (k *keyedMutex) Lock(code domain.RoomCode) func() {
	k.mu.Lock()
	e, ok := k.locks[code]
	if !ok {
		e = &lockEntry{}
		k.locks[code] = e
	}
	e.refs++
	k.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, code)
		}
		k.mu.Unlock()
	}
}

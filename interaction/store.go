package interaction

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwantia/webdesk/data"
)

// Store persists one State per session and serializes read-modify-write cycles.
type Store interface {
	// Load returns the stored state, or the zero State when none exists
	Load(ctx context.Context, sessionID string) (State, error)

	// Save replaces the stored state; a zero State deletes it
	Save(ctx context.Context, sessionID string, state State) error

	// Lock blocks until the session is exclusively held or ctx ends.
	// The returned unlock function is safe to call more than once.
	Lock(ctx context.Context, sessionID string) (func(), error)

	Close(ctx context.Context) error
}

// keyedMutex is a context-aware mutex per key; idle keys are released.
type keyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{slots: make(map[string]*slot)}
}

func (km *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	km.mu.Lock()
	s, ok := km.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		km.slots[key] = s
	}
	s.refs++
	km.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				km.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		km.release(key, s)
		return nil, fmt.Errorf("%w: session %s: %w", data.ErrLockTimeout, key, ctx.Err())
	}
}

func (km *keyedMutex) release(key string, s *slot) {
	km.mu.Lock()
	defer km.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(km.slots, key)
	}
}

func (km *keyedMutex) size() int {
	km.mu.Lock()
	defer km.mu.Unlock()

	return len(km.slots)
}

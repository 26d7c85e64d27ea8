package interaction

import (
	"context"
	"sync"

	"github.com/tidwall/btree"
)

// MemoryStore keeps states in an ordered in-process map. States are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states *btree.Map[string, State]
	locks  *keyedMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: btree.NewMap[string, State](0),
		locks:  newKeyedMutex(),
	}
}

func (ms *MemoryStore) Load(_ context.Context, sessionID string) (State, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	state, _ := ms.states.Get(sessionID)
	return state, nil
}

func (ms *MemoryStore) Save(_ context.Context, sessionID string, state State) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if state.IsZero() {
		ms.states.Delete(sessionID)
		return nil
	}
	ms.states.Set(sessionID, state)
	return nil
}

func (ms *MemoryStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	return ms.locks.Lock(ctx, sessionID)
}

func (ms *MemoryStore) Close(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.states.Clear()
	return nil
}

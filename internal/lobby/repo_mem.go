package lobby

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

type memRepo struct {
	mu      sync.Mutex
	pools   map[string]map[string]struct{} // key -> set(playerId)
	players map[string]string              // playerId -> key
}

// NewMemoryRepo backs the lobby without redis; TTLs are ignored, so it
// is only meant for tests and single-process setups.
func NewMemoryRepo() Repo {
	return &memRepo{
		pools:   make(map[string]map[string]struct{}),
		players: make(map[string]string),
	}
}

func memKey(variant string, seats int) string {
	return fmt.Sprintf("lobby:pool:%s:%d", variant, seats)
}

func (m *memRepo) Enqueue(ctx context.Context, variant string, seats int, playerID string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(variant, seats)
	if _, ok := m.pools[key]; !ok {
		m.pools[key] = make(map[string]struct{})
	}
	m.pools[key][playerID] = struct{}{}
	m.players[playerID] = key
	return nil
}

func (m *memRepo) PopNRandom(ctx context.Context, variant string, seats int, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey(variant, seats)
	s, ok := m.pools[key]
	if !ok || len(s) < n {
		return []string{}, nil
	}

	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	chosen := ids[:n]

	for _, id := range chosen {
		delete(s, id)
		delete(m.players, id)
	}
	// mirror the redis behavior: a drained pool vanishes
	if len(s) == 0 {
		delete(m.pools, key)
	}
	return chosen, nil
}

func (m *memRepo) Remove(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.players[playerID]
	if !ok {
		return nil
	}
	if s, ok := m.pools[key]; ok {
		delete(s, playerID)
	}
	delete(m.players, playerID)
	return nil
}

func (m *memRepo) Count(ctx context.Context, variant string, seats int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.pools[memKey(variant, seats)])), nil
}

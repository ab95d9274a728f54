package profile

import (
	"context"
	"sync"
)

type memRepo struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

// NewMemoryRepo keeps results in memory for setups without postgres.
func NewMemoryRepo() Repo {
	return &memRepo{profiles: make(map[string]*Profile)}
}

func (m *memRepo) get(id string) *Profile {
	p, ok := m.profiles[id]
	if !ok {
		p = &Profile{ID: id}
		m.profiles[id] = p
	}
	return p
}

func (m *memRepo) Upsert(ctx context.Context, id, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(id).Username = username
	return nil
}

func (m *memRepo) RecordResult(ctx context.Context, winnerID, loserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if winnerID != "" {
		w := m.get(winnerID)
		w.TotalWins++
		w.TotalGames++
	}
	if loserID != "" {
		m.get(loserID).TotalGames++
	}
	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

package archive

import (
	"context"
	"sort"
	"sync"
)

// Memory is the Repository used when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	games map[string]*Result
}

func NewMemory() *Memory {
	return &Memory{games: make(map[string]*Result)}
}

func (m *Memory) SaveResult(_ context.Context, r *Result) error {
	if err := validate(r); err != nil {
		return err
	}
	cp := clone(r)
	m.mu.Lock()
	m.games[r.GameID] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, gameID string) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.games[gameID]
	if !ok {
		return nil, nil
	}
	return clone(r), nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]*Result, error) {
	m.mu.RLock()
	items := make([]*Result, 0, len(m.games))
	for _, r := range m.games {
		items = append(items, clone(r))
	}
	m.mu.RUnlock()

	// EndedAt desc, then id for a stable order
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].GameID < items[j].GameID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *Memory) Close() error { return nil }

func clone(r *Result) *Result {
	cp := *r
	cp.MovesUCI = append([]string(nil), r.MovesUCI...)
	cp.MovesSAN = append([]string(nil), r.MovesSAN...)
	return &cp
}

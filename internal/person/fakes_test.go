package person

import (
	"context"
	"sort"
	"sync"

	"github.com/mehmetcc/people/internal/database"
)

// memoryRepository keeps people in a map and ignores the Querier. It lets
// service tests focus on the session lifecycle.
type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Person
	err    error
	writes int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: make(map[int64]Person)}
}

func (m *memoryRepository) Insert(_ context.Context, _ database.Querier, person *Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	person.ID = m.nextID
	m.rows[person.ID] = *person
	m.writes++
	return nil
}

func (m *memoryRepository) FindByID(_ context.Context, _ database.Querier, id int64) (*Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memoryRepository) FindAll(_ context.Context, _ database.Querier) ([]Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Person, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) Update(_ context.Context, _ database.Querier, person *Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[person.ID]; !ok {
		return ErrNotFound
	}
	m.rows[person.ID] = *person
	m.writes++
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, _ database.Querier, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	m.writes++
	return nil
}

package pending

import (
	"context"
	"sync"

	"github.com/lead-capture-api/internal/domain"
)

// Memory is a volatile backend; its contents live as long as the value does.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]domain.PendingRegistration
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]domain.PendingRegistration)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Load(_ context.Context, email string) (*domain.PendingRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[email]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) Save(_ context.Context, rec *domain.PendingRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.Email] = *rec
	return nil
}

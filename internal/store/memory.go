package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geotsn/aggeliesergasias/models"
)

// MemoryStore is an in-process Store used in tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	rows  map[string]models.Listing
	order []string
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]models.Listing),
		now:  time.Now,
	}
}

func (m *MemoryStore) Insert(ctx context.Context, listing models.Listing) (models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return models.Listing{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	created := m.now().UTC()
	if listing.CreatedAt == nil {
		listing.CreatedAt = models.TimePtr(created)
	}
	if listing.UpdatedAt == nil {
		listing.UpdatedAt = models.TimePtr(created)
	}
	m.rows[listing.ID] = listing
	m.order = append(m.order, listing.ID)
	return listing, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return models.Listing{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.rows[id]
	if !ok {
		return models.Listing{}, ErrNotFound
	}
	return l, nil
}

func (m *MemoryStore) ActivatePending(ctx context.Context, id string, at time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.rows[id]
	if !ok || !l.IsPending() {
		return 0, nil
	}
	l.PaymentStatus = models.PaymentStatusPtr(models.PaymentCompleted)
	l.IsActive = true
	l.UpdatedAt = models.TimePtr(at.UTC())
	m.rows[id] = l
	return 1, nil
}

func (m *MemoryStore) FindPendingMatch(ctx context.Context, source, title, company string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// insertion order doubles as created_at order
	for _, id := range m.order {
		l := m.rows[id]
		if l.IsPending() && l.Source == source && l.Title == title && l.Company == company {
			return id, nil
		}
	}
	return "", ErrNotFound
}

func (m *MemoryStore) ListActive(ctx context.Context, q ActiveQuery) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Listing
	for _, id := range m.order {
		l := m.rows[id]
		if !l.IsVisible(q.Now) {
			continue
		}
		if q.Category != "" && l.CategoryValue() != q.Category {
			continue
		}
		out = append(out, l)
	}
	SortFeed(out)
	return out, nil
}

// Len reports the number of stored rows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MemoryRepository struct {
	mu        sync.RWMutex
	locations map[string]model.Location
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{locations: make(map[string]model.Location)}
}

func (r *MemoryRepository) Create(_ context.Context, loc *model.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locations[loc.ID]; ok {
		return fmt.Errorf("%w: %s", ledgererr.ErrLocationAlreadyExists, loc.ID)
	}
	r.locations[loc.ID] = *loc
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledgererr.ErrLocationNotFound, id)
	}
	return &loc, nil
}

func (r *MemoryRepository) FindAll(_ context.Context, activeOnly bool) ([]model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Location, 0, len(r.locations))
	for _, loc := range r.locations {
		if activeOnly && !loc.IsActive {
			continue
		}
		items = append(items, loc)
	}
	return items, nil
}

func (r *MemoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.locations[id]
	if !ok {
		return fmt.Errorf("%w: %s", ledgererr.ErrLocationNotFound, id)
	}
	loc.IsActive = active
	r.locations[id] = loc
	return nil
}

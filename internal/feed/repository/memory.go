package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	sources map[string]*model.ExternalSource
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sources: make(map[string]*model.ExternalSource)}
}

func (r *MemoryRepository) Upsert(_ context.Context, src *model.ExternalSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := src.Clone()
	if existing, ok := r.sources[src.ID]; ok && stored.LastSyncAt == nil {
		stored.LastSyncAt = existing.LastSyncAt
		stored.LastSyncStatus = existing.LastSyncStatus
	}
	r.sources[src.ID] = stored
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.ExternalSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledgererr.ErrSourceNotFound, id)
	}
	return src.Clone(), nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]model.ExternalSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.ExternalSource, 0, len(r.sources))
	for _, src := range r.sources {
		items = append(items, *src.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *MemoryRepository) UpdateSyncState(_ context.Context, id string, at time.Time, status model.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[id]
	if !ok {
		return fmt.Errorf("%w: %s", ledgererr.ErrSourceNotFound, id)
	}
	src.LastSyncAt = &at
	src.LastSyncStatus = &status
	return nil
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// MemoryRepository keeps levels and the adjustment log in process. Lock order is
// levelsMu then logMu; the log lock is never held while waiting on levelsMu.
type MemoryRepository struct {
	levelsMu sync.RWMutex
	levels   map[model.InventoryKey]*model.InventoryLevel

	logMu       sync.RWMutex
	adjustments []model.InventoryAdjustment
	seq         int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{levels: make(map[model.InventoryKey]*model.InventoryLevel)}
}

func (r *MemoryRepository) GetLevel(_ context.Context, key model.InventoryKey) (*model.InventoryLevel, error) {
	r.levelsMu.RLock()
	defer r.levelsMu.RUnlock()

	level, ok := r.levels[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledgererr.ErrInventoryNotFound, key)
	}
	cp := *level
	return &cp, nil
}

func (r *MemoryRepository) ListLevels(_ context.Context, f *dto.LevelFilters) ([]model.InventoryLevel, error) {
	r.levelsMu.RLock()
	defer r.levelsMu.RUnlock()

	items := []model.InventoryLevel{}
	for _, level := range r.levels {
		if !matchLevel(level, f) {
			continue
		}
		items = append(items, *level)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Key().String() < items[j].Key().String()
	})
	return items, nil
}

func matchLevel(l *model.InventoryLevel, f *dto.LevelFilters) bool {
	if f == nil {
		return true
	}
	if f.ProductID != "" && l.ProductID != f.ProductID {
		return false
	}
	if f.LocationID != "" && l.LocationID != f.LocationID {
		return false
	}
	if f.LowStock && !l.IsLowStock() {
		return false
	}
	if f.OutOfStock && !l.IsOutOfStock() {
		return false
	}
	if f.Reorder && !l.NeedsReorder() {
		return false
	}
	return true
}

func (r *MemoryRepository) Mutate(_ context.Context, key model.InventoryKey, create bool, fn inventory.Mutation) (*model.InventoryLevel, *model.InventoryAdjustment, error) {
	r.levelsMu.Lock()
	defer r.levelsMu.Unlock()

	var working model.InventoryLevel
	if existing, ok := r.levels[key]; ok {
		working = *existing
	} else if create {
		working = *model.NewInventoryLevel(key, time.Now())
	} else {
		return nil, nil, fmt.Errorf("%w: %s", ledgererr.ErrInventoryNotFound, key)
	}

	adj, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}

	stored := working
	r.levels[key] = &stored

	if adj != nil {
		r.logMu.Lock()
		r.seq++
		adj.Seq = r.seq
		r.adjustments = append(r.adjustments, *adj)
		r.logMu.Unlock()
	}

	result := working
	return &result, adj, nil
}

func (r *MemoryRepository) ListAdjustments(_ context.Context, f *dto.AdjustmentFilters) ([]model.InventoryAdjustment, error) {
	r.logMu.RLock()
	defer r.logMu.RUnlock()

	items := []model.InventoryAdjustment{}
	// The log is append-only in sequence order; walk it backwards for newest first.
	for i := len(r.adjustments) - 1; i >= 0; i-- {
		a := r.adjustments[i]
		if !matchAdjustment(&a, f) {
			continue
		}
		items = append(items, a)
		if f != nil && f.Limit > 0 && len(items) == f.Limit {
			break
		}
	}
	return items, nil
}

func matchAdjustment(a *model.InventoryAdjustment, f *dto.AdjustmentFilters) bool {
	if f == nil {
		return true
	}
	if f.ProductID != "" && a.ProductID != f.ProductID {
		return false
	}
	if f.LocationID != "" && a.LocationID != f.LocationID {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Reference != "" && (a.Reference == nil || *a.Reference != f.Reference) {
		return false
	}
	if f.StartDate != nil && a.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && a.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

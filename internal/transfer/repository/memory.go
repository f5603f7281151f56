package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
)

type MemoryRepository struct {
	mu        sync.RWMutex
	transfers map[string]*model.StockTransfer
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{transfers: make(map[string]*model.StockTransfer)}
}

func (r *MemoryRepository) Create(_ context.Context, t *model.StockTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transfers[t.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", ledgererr.ErrInvalidTransfer, t.ID)
	}
	r.transfers[t.ID] = t.Clone()
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.StockTransfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transfers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledgererr.ErrTransferNotFound, id)
	}
	return t.Clone(), nil
}

func (r *MemoryRepository) FindAll(_ context.Context, f *dto.TransferFilters) ([]model.StockTransfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []model.StockTransfer{}
	for _, t := range r.transfers {
		if f != nil {
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			if f.LocationID != "" && t.FromLocationID != f.LocationID && t.ToLocationID != f.LocationID {
				continue
			}
		}
		items = append(items, *t.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *MemoryRepository) Update(_ context.Context, t *model.StockTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transfers[t.ID]; !ok {
		return fmt.Errorf("%w: %s", ledgererr.ErrTransferNotFound, t.ID)
	}
	r.transfers[t.ID] = t.Clone()
	return nil
}

package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]bool   // id -> active
	bySKU    map[string]string // sku -> id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]bool),
		bySKU:    make(map[string]string),
	}
}

// AddProduct registers an active product; sku may be empty.
func (r *MemoryRepository) AddProduct(id, sku string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[id] = true
	if sku != "" {
		r.bySKU[sku] = id
	}
}

func (r *MemoryRepository) Deactivate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; ok {
		r.products[id] = false
	}
}

func (r *MemoryRepository) ProductExists(_ context.Context, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.products[productID], nil
}

func (r *MemoryRepository) FindIDBySKU(_ context.Context, sku string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySKU[sku]
	if !ok || !r.products[id] {
		return "", fmt.Errorf("%w: sku %s", ledgererr.ErrProductNotFound, sku)
	}
	return id, nil
}

package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// Mutation changes level in place and returns the audit entry describing the
// change, or nil when the change is not audited (threshold configuration).
// Returning an error discards every change made to level.
type Mutation func(level *model.InventoryLevel) (*model.InventoryAdjustment, error)

type Repository interface {
	// Inventory Levels
	GetLevel(ctx context.Context, key model.InventoryKey) (*model.InventoryLevel, error)
	ListLevels(ctx context.Context, filters *dto.LevelFilters) ([]model.InventoryLevel, error)

	// Mutate applies fn to the row for key and appends the adjustment it returns,
	// both inside one critical section. Without create, a missing row fails with
	// ledgererr.ErrInventoryNotFound and fn is not called.
	Mutate(ctx context.Context, key model.InventoryKey, create bool, fn Mutation) (*model.InventoryLevel, *model.InventoryAdjustment, error)

	// Adjustments / Audit
	ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.InventoryAdjustment, error)
}

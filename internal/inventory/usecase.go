package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	// Stock operations. Each one is a single critical section on its key and
	// appends exactly one adjustment.
	SetInventory(ctx context.Context, input *dto.SetInventoryInput) (*model.InventoryLevel, error)
	ReserveStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	ReleaseStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	CommitStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	ReceiveStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	ReturnStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	MarkDamaged(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	ScrapStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)
	CycleCount(ctx context.Context, input *dto.SetInventoryInput) (*model.InventoryLevel, error)
	// ApplyChange is the reconciler's entry point: set, increment or decrement
	// on_hand, creating the row if needed.
	ApplyChange(ctx context.Context, key model.InventoryKey, change model.ChangeType, quantity int64, reference, reason string) (*model.InventoryLevel, error)

	// Configuration, not audited.
	UpdateThresholds(ctx context.Context, input *dto.ThresholdsInput) (*model.InventoryLevel, error)

	// Queries
	GetInventory(ctx context.Context, key model.InventoryKey) (*model.InventoryLevel, error)
	GetAllForProduct(ctx context.Context, productID string) ([]model.InventoryLevel, error)
	GetTotalAvailable(ctx context.Context, productID string) (int64, error)
	IsLowStock(ctx context.Context, key model.InventoryKey) (bool, error)
	IsOutOfStock(ctx context.Context, key model.InventoryKey) (bool, error)
	NeedsReorder(ctx context.Context, key model.InventoryKey) (bool, error)
	GetLowStock(ctx context.Context) ([]model.InventoryLevel, error)
	GetReorderNeeded(ctx context.Context) ([]model.InventoryLevel, error)
	GetOutOfStock(ctx context.Context) ([]model.InventoryLevel, error)
	GetAdjustmentHistory(ctx context.Context, productID string, limit int) ([]model.InventoryAdjustment, error)
	ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.InventoryAdjustment, error)
}

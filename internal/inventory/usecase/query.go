package usecase

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

func (uc *inventoryUseCase) GetInventory(ctx context.Context, key model.InventoryKey) (*model.InventoryLevel, error) {
	return uc.repo.GetLevel(ctx, key)
}

func (uc *inventoryUseCase) GetAllForProduct(ctx context.Context, productID string) ([]model.InventoryLevel, error) {
	return uc.repo.ListLevels(ctx, &dto.LevelFilters{ProductID: productID})
}

// GetTotalAvailable sums available across every location holding the product.
// Negative rows (oversold after a corrective set) count as they are.
func (uc *inventoryUseCase) GetTotalAvailable(ctx context.Context, productID string) (int64, error) {
	levels, err := uc.repo.ListLevels(ctx, &dto.LevelFilters{ProductID: productID})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, l := range levels {
		total += l.Available
	}
	return total, nil
}

func (uc *inventoryUseCase) IsLowStock(ctx context.Context, key model.InventoryKey) (bool, error) {
	level, err := uc.repo.GetLevel(ctx, key)
	if err != nil {
		return false, err
	}
	return level.IsLowStock(), nil
}

func (uc *inventoryUseCase) IsOutOfStock(ctx context.Context, key model.InventoryKey) (bool, error) {
	level, err := uc.repo.GetLevel(ctx, key)
	if err != nil {
		return false, err
	}
	return level.IsOutOfStock(), nil
}

func (uc *inventoryUseCase) NeedsReorder(ctx context.Context, key model.InventoryKey) (bool, error) {
	level, err := uc.repo.GetLevel(ctx, key)
	if err != nil {
		return false, err
	}
	return level.NeedsReorder(), nil
}

func (uc *inventoryUseCase) GetLowStock(ctx context.Context) ([]model.InventoryLevel, error) {
	return uc.repo.ListLevels(ctx, &dto.LevelFilters{LowStock: true})
}

func (uc *inventoryUseCase) GetReorderNeeded(ctx context.Context) ([]model.InventoryLevel, error) {
	return uc.repo.ListLevels(ctx, &dto.LevelFilters{Reorder: true})
}

func (uc *inventoryUseCase) GetOutOfStock(ctx context.Context) ([]model.InventoryLevel, error) {
	return uc.repo.ListLevels(ctx, &dto.LevelFilters{OutOfStock: true})
}

func (uc *inventoryUseCase) GetAdjustmentHistory(ctx context.Context, productID string, limit int) ([]model.InventoryAdjustment, error) {
	return uc.repo.ListAdjustments(ctx, &dto.AdjustmentFilters{ProductID: productID, Limit: limit})
}

func (uc *inventoryUseCase) ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.InventoryAdjustment, error) {
	return uc.repo.ListAdjustments(ctx, filters)
}

package transfer

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
)

type Repository interface {
	Create(ctx context.Context, transfer *model.StockTransfer) error
	// FindByID fails with ledgererr.ErrTransferNotFound.
	FindByID(ctx context.Context, id string) (*model.StockTransfer, error)
	FindAll(ctx context.Context, filters *dto.TransferFilters) ([]model.StockTransfer, error)
	// Update persists status, items (the journal) and timestamps.
	Update(ctx context.Context, transfer *model.StockTransfer) error
}

package transfer

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
)

type UseCase interface {
	CreateTransfer(ctx context.Context, input *dto.CreateTransferInput) (*model.StockTransfer, error)
	AddItem(ctx context.Context, id string, item *dto.TransferItemInput) (*model.StockTransfer, error)
	GetTransfer(ctx context.Context, id string) (*model.StockTransfer, error)
	ListTransfers(ctx context.Context, filters *dto.TransferFilters) ([]model.StockTransfer, error)

	StartTransfer(ctx context.Context, id string) (*model.StockTransfer, error)
	CompleteTransfer(ctx context.Context, id string) (*model.StockTransfer, error)
	CancelTransfer(ctx context.Context, id string) (*model.StockTransfer, error)
	// ResumeInProgress finishes every in_progress transfer and returns how many
	// were completed.
	ResumeInProgress(ctx context.Context) (int, error)
}

package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type CreateTransferInput struct {
	FromLocationID  string
	ToLocationID    string
	Notes           string
	ExpectedArrival *time.Time
	Items           []TransferItemInput
}

type TransferItemInput struct {
	ProductID string
	VariantID string
	Quantity  int64
}

type TransferFilters struct {
	Status     model.TransferStatus // empty matches every status
	LocationID string               // source or destination
}

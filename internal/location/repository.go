package location

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// Create fails with ledgererr.ErrLocationAlreadyExists on a duplicate id.
	Create(ctx context.Context, location *model.Location) error
	// FindByID fails with ledgererr.ErrLocationNotFound.
	FindByID(ctx context.Context, id string) (*model.Location, error)
	FindAll(ctx context.Context, activeOnly bool) ([]model.Location, error)
	SetActive(ctx context.Context, id string, active bool) error
}

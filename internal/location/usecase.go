package location

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	AddLocation(ctx context.Context, location *model.Location) error
	GetLocation(ctx context.Context, id string) (*model.Location, error)
	GetActiveLocations(ctx context.Context) ([]model.Location, error)
	SetActive(ctx context.Context, id string, active bool) error
	EnsureDefault(ctx context.Context) error
}

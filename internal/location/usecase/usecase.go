package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/location"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"go.uber.org/zap"
)

type locationUseCase struct {
	repo   location.Repository
	logger logger.ZapLogger
}

func NewLocationUseCase(repo location.Repository, log logger.ZapLogger) location.UseCase {
	return &locationUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *locationUseCase) AddLocation(ctx context.Context, loc *model.Location) error {
	if loc.ID == "" {
		return errors.New("location id is required")
	}
	if loc.Kind == "" {
		loc.Kind = model.LocationWarehouse
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now()
	}

	if err := uc.repo.Create(ctx, loc); err != nil {
		return err
	}

	uc.logger.Info("location registered",
		zap.String("location_id", loc.ID),
		zap.String("kind", string(loc.Kind)),
	)
	return nil
}

func (uc *locationUseCase) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *locationUseCase) GetActiveLocations(ctx context.Context) ([]model.Location, error) {
	items, err := uc.repo.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].FulfillmentPriority != items[j].FulfillmentPriority {
			return items[i].FulfillmentPriority < items[j].FulfillmentPriority
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (uc *locationUseCase) SetActive(ctx context.Context, id string, active bool) error {
	if err := uc.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	uc.logger.Info("location active flag changed", zap.String("location_id", id), zap.Bool("active", active))
	return nil
}

// EnsureDefault registers the main warehouse unless it already exists.
func (uc *locationUseCase) EnsureDefault(ctx context.Context) error {
	err := uc.AddLocation(ctx, model.NewWarehouse(model.DefaultWarehouseID, "Main Warehouse"))
	if err != nil && !errors.Is(err, ledgererr.ErrLocationAlreadyExists) {
		return err
	}
	return nil
}

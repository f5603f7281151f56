package feed

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	RegisterSource(ctx context.Context, source *model.ExternalSource) error
	GetSource(ctx context.Context, id string) (*model.ExternalSource, error)
	ListSources(ctx context.Context) ([]model.ExternalSource, error)
	// ApplySyncChanges applies every change independently and reports the
	// outcome; only an unknown or disabled source fails the whole call.
	ApplySyncChanges(ctx context.Context, sourceID string, changes []model.InventoryChange) (*model.SyncResult, error)
	// SyncDue claims the enabled sources whose interval has elapsed at now,
	// marking them in_progress as of now.
	SyncDue(ctx context.Context, now time.Time) ([]model.ExternalSource, error)
}

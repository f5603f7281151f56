package feed

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// Upsert inserts source or replaces its configuration; sync state is kept.
	Upsert(ctx context.Context, source *model.ExternalSource) error
	// FindByID fails with ledgererr.ErrSourceNotFound.
	FindByID(ctx context.Context, id string) (*model.ExternalSource, error)
	FindAll(ctx context.Context) ([]model.ExternalSource, error)
	UpdateSyncState(ctx context.Context, id string, at time.Time, status model.SyncStatus) error
}

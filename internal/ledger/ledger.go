// Package ledger assembles the inventory ledger from its components.
package ledger

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/feed"
	feedH "github.com/fekuna/omnipos-inventory-service/internal/feed/handler"
	feedRepo "github.com/fekuna/omnipos-inventory-service/internal/feed/repository"
	feedUC "github.com/fekuna/omnipos-inventory-service/internal/feed/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invH "github.com/fekuna/omnipos-inventory-service/internal/inventory/handler"
	invRepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	invUC "github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/location"
	locH "github.com/fekuna/omnipos-inventory-service/internal/location/handler"
	locRepo "github.com/fekuna/omnipos-inventory-service/internal/location/repository"
	locUC "github.com/fekuna/omnipos-inventory-service/internal/location/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/broker"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/lock"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/rpc"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer"
	trH "github.com/fekuna/omnipos-inventory-service/internal/transfer/handler"
	trRepo "github.com/fekuna/omnipos-inventory-service/internal/transfer/repository"
	trUC "github.com/fekuna/omnipos-inventory-service/internal/transfer/usecase"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Ledger struct {
	Locations location.UseCase
	Inventory inventory.UseCase
	Transfers transfer.UseCase
	Feeds     feed.UseCase
}

// Options carries the optional collaborators. A nil Locker means in-process
// per-key locks.
type Options struct {
	Locker    lock.Locker
	Catalog   catalog.ProductChecker
	Publisher broker.MessageWriter
}

type repositories struct {
	locations location.Repository
	inventory inventory.Repository
	transfers transfer.Repository
	sources   feed.Repository
}

func build(repos repositories, log logger.ZapLogger, opts Options) *Ledger {
	locker := opts.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}

	locations := locUC.NewLocationUseCase(repos.locations, log)
	inv := invUC.NewInventoryUseCase(repos.inventory, locker, log)
	return &Ledger{
		Locations: locations,
		Inventory: inv,
		Transfers: trUC.NewTransferUseCase(repos.transfers, locations, inv, locker, log),
		Feeds:     feedUC.NewFeedUseCase(repos.sources, inv, opts.Catalog, opts.Publisher, log),
	}
}

// NewInMemory returns a ledger whose registry already holds the default
// warehouse.
func NewInMemory(log logger.ZapLogger, opts Options) *Ledger {
	l := build(repositories{
		locations: locRepo.NewMemoryRepository(),
		inventory: invRepo.NewMemoryRepository(),
		transfers: trRepo.NewMemoryRepository(),
		sources:   feedRepo.NewMemoryRepository(),
	}, log, opts)
	if err := l.Locations.EnsureDefault(context.Background()); err != nil {
		log.Error("failed to register default warehouse", zap.Error(err))
	}
	return l
}

// NewPostgres returns a ledger backed by db, registering the default
// warehouse if the registry lacks it.
func NewPostgres(ctx context.Context, db *sqlx.DB, log logger.ZapLogger, opts Options) (*Ledger, error) {
	l := build(repositories{
		locations: locRepo.NewPGRepository(db),
		inventory: invRepo.NewPGRepository(db),
		transfers: trRepo.NewPGRepository(db),
		sources:   feedRepo.NewPGRepository(db),
	}, log, opts)
	if err := l.Locations.EnsureDefault(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Services returns the gRPC services exposing the ledger.
func (l *Ledger) Services(log logger.ZapLogger) []rpc.Service {
	return []rpc.Service{
		invH.NewInventoryHandler(l.Inventory, log),
		trH.NewTransferHandler(l.Transfers, log),
		feedH.NewSyncHandler(l.Feeds, log),
		locH.NewLocationHandler(l.Locations, log),
	}
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/feed"
	"github.com/fekuna/omnipos-inventory-service/internal/feed/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/broker"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/fekuna/omnipos-inventory-service/internal/feed"

	DefaultSyncInterval = time.Hour
)

type feedUseCase struct {
	repo      feed.Repository
	inventory inventory.UseCase
	catalog   catalog.ProductChecker
	publisher broker.MessageWriter
	tracer    trace.Tracer
	logger    logger.ZapLogger
}

// NewFeedUseCase wires the reconciler. checker and publisher are optional: without
// a checker product ids are not validated against the catalog, without a
// publisher sync events are not emitted.
func NewFeedUseCase(repo feed.Repository, inv inventory.UseCase, checker catalog.ProductChecker, publisher broker.MessageWriter, log logger.ZapLogger) feed.UseCase {
	return &feedUseCase{
		repo:      repo,
		inventory: inv,
		catalog:   checker,
		publisher: publisher,
		tracer:    otel.Tracer(tracerName),
		logger:    log,
	}
}

func (uc *feedUseCase) RegisterSource(ctx context.Context, src *model.ExternalSource) error {
	if src.ID == "" {
		return errors.New("source id is required")
	}
	if src.Kind == "" {
		src.Kind = model.SourceManual
	}
	if src.SyncInterval <= 0 {
		src.SyncInterval = DefaultSyncInterval
	}
	if err := uc.repo.Upsert(ctx, src); err != nil {
		return err
	}
	uc.logger.Info("inventory source registered",
		zap.String("source_id", src.ID),
		zap.String("kind", string(src.Kind)),
		zap.Bool("sync_enabled", src.SyncEnabled),
	)
	return nil
}

func (uc *feedUseCase) GetSource(ctx context.Context, id string) (*model.ExternalSource, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *feedUseCase) ListSources(ctx context.Context) ([]model.ExternalSource, error) {
	return uc.repo.FindAll(ctx)
}

func (uc *feedUseCase) ApplySyncChanges(ctx context.Context, sourceID string, changes []model.InventoryChange) (*model.SyncResult, error) {
	ctx, span := uc.tracer.Start(ctx, "feed.apply_sync_changes", trace.WithAttributes(
		attribute.String("feed.source_id", sourceID),
		attribute.Int("feed.changes", len(changes)),
	))
	defer span.End()

	src, err := uc.repo.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !src.SyncEnabled {
		return nil, fmt.Errorf("%w: %s", ledgererr.ErrSourceDisabled, sourceID)
	}

	start := time.Now()
	result := &model.SyncResult{
		SourceID: sourceID,
		Errors:   []string{},
	}
	for i := range changes {
		result.ItemsProcessed++
		if err := uc.applyChange(ctx, src, &changes[i]); err != nil {
			result.ItemsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("Product %s: %v", changes[i].ProductID, err))
			continue
		}
		result.ItemsUpdated++
	}

	switch {
	case result.ItemsFailed == 0:
		result.Status = model.SyncSuccess
	case result.ItemsUpdated > 0:
		result.Status = model.SyncPartial
	default:
		result.Status = model.SyncFailed
	}
	result.SyncedAt = time.Now()
	result.Duration = result.SyncedAt.Sub(start)

	span.SetAttributes(
		attribute.Int("feed.items_updated", result.ItemsUpdated),
		attribute.Int("feed.items_failed", result.ItemsFailed),
	)

	if err := uc.repo.UpdateSyncState(ctx, sourceID, result.SyncedAt, result.Status); err != nil {
		uc.logger.Error("failed to record sync state", zap.String("source_id", sourceID), zap.Error(err))
	}

	uc.logger.Info("sync batch applied",
		zap.String("source_id", sourceID),
		zap.String("status", string(result.Status)),
		zap.Int("processed", result.ItemsProcessed),
		zap.Int("updated", result.ItemsUpdated),
		zap.Int("failed", result.ItemsFailed),
	)

	uc.publish(ctx, &dto.SyncEvent{
		EventType: dto.EventSyncCompleted,
		SourceID:  sourceID,
		Result:    result,
	})
	return result, nil
}

func (uc *feedUseCase) applyChange(ctx context.Context, src *model.ExternalSource, change *model.InventoryChange) error {
	productID := change.ProductID
	if productID == "" && change.SKU != "" && uc.catalog != nil {
		id, err := uc.catalog.FindIDBySKU(ctx, change.SKU)
		if err != nil {
			return err
		}
		productID = id
	}
	if productID == "" {
		return errors.New("product id is required")
	}
	if change.LocationID == "" {
		return errors.New("location id is required")
	}
	if change.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %d", ledgererr.ErrInvalidChange, change.Quantity)
	}
	if uc.catalog != nil {
		ok, err := uc.catalog.ProductExists(ctx, productID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ledgererr.ErrProductNotFound, productID)
		}
	}

	key := model.InventoryKey{ProductID: productID, LocationID: src.MapLocation(change.LocationID)}
	_, err := uc.inventory.ApplyChange(ctx, key, change.ChangeType, change.Quantity, src.ID, "sync from "+src.ID)
	return err
}

func (uc *feedUseCase) SyncDue(ctx context.Context, now time.Time) ([]model.ExternalSource, error) {
	sources, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	due := []model.ExternalSource{}
	for _, src := range sources {
		// A claim counts as a sync attempt, so a source stuck in progress is
		// claimed again one interval later.
		if !src.Due(now) {
			continue
		}
		if err := uc.repo.UpdateSyncState(ctx, src.ID, now, model.SyncInProgress); err != nil {
			return nil, err
		}
		status := model.SyncInProgress
		src.LastSyncAt = &now
		src.LastSyncStatus = &status
		due = append(due, src)

		uc.publish(ctx, &dto.SyncEvent{EventType: dto.EventSyncRequested, SourceID: src.ID})
	}
	return due, nil
}

func (uc *feedUseCase) publish(ctx context.Context, event *dto.SyncEvent) {
	if uc.publisher == nil {
		return
	}
	event.EventID = uuid.New().String()
	event.Timestamp = time.Now()

	value, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal sync event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, event.SourceID, value); err != nil {
		uc.logger.Warn("failed to publish sync event",
			zap.String("event_type", event.EventType),
			zap.String("source_id", event.SourceID),
			zap.Error(err),
		)
	}
}

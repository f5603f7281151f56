package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/lock"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fekuna/omnipos-inventory-service/internal/inventory"

type inventoryUseCase struct {
	repo   inventory.Repository
	locker lock.Locker
	tracer trace.Tracer
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, locker lock.Locker, log logger.ZapLogger) inventory.UseCase {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &inventoryUseCase{
		repo:   repo,
		locker: locker,
		tracer: otel.Tracer(tracerName),
		logger: log,
	}
}

func keyOf(productID, variantID, locationID string) model.InventoryKey {
	return model.InventoryKey{ProductID: productID, VariantID: variantID, LocationID: locationID}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}

// newAdjustment builds the audit entry for key; NewQuantity is derived so the
// entry always reconstructs its before/after pair.
func newAdjustment(ctx context.Context, key model.InventoryKey, typ model.AdjustmentType, delta, previous int64, reference, reason, userID string, now time.Time) *model.InventoryAdjustment {
	if userID == "" {
		userID = auth.GetUserID(ctx)
	}
	return &model.InventoryAdjustment{
		ID:               uuid.New().String(),
		ProductID:        key.ProductID,
		VariantID:        key.VariantID,
		LocationID:       key.LocationID,
		Type:             typ,
		Quantity:         delta,
		PreviousQuantity: previous,
		NewQuantity:      previous + delta,
		Reference:        optional(reference),
		Reason:           reason,
		CreatedBy:        optional(userID),
		CreatedAt:        now,
	}
}

// mutate is the single path every stock operation takes: key lock, then one
// repository critical section covering the level and its adjustment.
func (uc *inventoryUseCase) mutate(ctx context.Context, op string, key model.InventoryKey, create bool, fn inventory.Mutation) (*model.InventoryLevel, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory."+op, trace.WithAttributes(
		attribute.String("inventory.product_id", key.ProductID),
		attribute.String("inventory.location_id", key.LocationID),
	))
	defer span.End()

	unlock, err := uc.locker.Lock(ctx, key.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock")
		uc.logger.Error("failed to lock inventory key", zap.String("key", key.String()), zap.Error(err))
		return nil, err
	}
	defer unlock()

	level, adj, err := uc.repo.Mutate(ctx, key, create, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
		return nil, err
	}

	if adj != nil {
		uc.logger.Debug("inventory adjusted",
			zap.String("op", op),
			zap.String("key", key.String()),
			zap.String("type", string(adj.Type)),
			zap.Int64("quantity", adj.Quantity),
			zap.Int64("on_hand", level.OnHand),
			zap.Int64("committed", level.Committed),
			zap.Int64("available", level.Available),
		)
	}
	return level, nil
}

func validQuantity(q int64) error {
	if q <= 0 {
		return fmt.Errorf("%w: %d", ledgererr.ErrInvalidQuantity, q)
	}
	return nil
}

func (uc *inventoryUseCase) SetInventory(ctx context.Context, input *dto.SetInventoryInput) (*model.InventoryLevel, error) {
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "set", key, true, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.OnHand
		l.OnHand = input.OnHand
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentAdjustment, l.OnHand-previous, previous,
			input.Reference, reasonOr(input.Reason, "Inventory set"), input.UserID, now), nil
	})
}

func (uc *inventoryUseCase) CycleCount(ctx context.Context, input *dto.SetInventoryInput) (*model.InventoryLevel, error) {
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "cycle_count", key, true, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.OnHand
		l.OnHand = input.OnHand
		l.LastCountedAt = &now
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentCycleCount, l.OnHand-previous, previous,
			input.Reference, reasonOr(input.Reason, "Cycle count"), input.UserID, now), nil
	})
}

// ReserveStock moves quantity into committed. It never partially applies: a
// request larger than available fails with *ledgererr.InsufficientInventoryError.
func (uc *inventoryUseCase) ReserveStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	if err := validQuantity(input.Quantity); err != nil {
		return nil, err
	}
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "reserve", key, false, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		if l.Available < input.Quantity {
			available := l.Available
			if available < 0 {
				available = 0
			}
			return nil, &ledgererr.InsufficientInventoryError{
				ProductID: input.ProductID,
				Available: available,
				Requested: input.Quantity,
			}
		}
		now := time.Now()
		previous := l.Committed
		l.Committed += input.Quantity
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentReserved, input.Quantity, previous,
			input.Reference, reasonOr(input.Reason, "Stock reserved for order"), input.UserID, now), nil
	})
}

// ReleaseStock returns reserved units to available; committed saturates at zero.
func (uc *inventoryUseCase) ReleaseStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	if err := validQuantity(input.Quantity); err != nil {
		return nil, err
	}
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "release", key, false, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.Committed
		l.Committed = saturatingSub(l.Committed, input.Quantity)
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentUnreserved, l.Committed-previous, previous,
			input.Reference, reasonOr(input.Reason, "Stock released"), input.UserID, now), nil
	})
}

// CommitStock ships reserved units: on_hand and committed both drop by
// quantity, each saturating at zero.
func (uc *inventoryUseCase) CommitStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	if err := validQuantity(input.Quantity); err != nil {
		return nil, err
	}
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "commit", key, false, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.OnHand
		l.OnHand = saturatingSub(l.OnHand, input.Quantity)
		l.Committed = saturatingSub(l.Committed, input.Quantity)
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentShipped, l.OnHand-previous, previous,
			input.Reference, reasonOr(input.Reason, "Stock shipped"), input.UserID, now), nil
	})
}

func (uc *inventoryUseCase) ReceiveStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	return uc.addOnHand(ctx, "receive", model.AdjustmentReceived, "Stock received", input)
}

func (uc *inventoryUseCase) ReturnStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	return uc.addOnHand(ctx, "return", model.AdjustmentReturned, "Stock returned", input)
}

func (uc *inventoryUseCase) addOnHand(ctx context.Context, op string, typ model.AdjustmentType, defaultReason string, input *dto.StockInput) (*model.InventoryLevel, error) {
	if err := validQuantity(input.Quantity); err != nil {
		return nil, err
	}
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, op, key, true, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.OnHand
		l.OnHand = saturatingAdd(l.OnHand, input.Quantity)
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, typ, l.OnHand-previous, previous,
			input.Reference, reasonOr(input.Reason, defaultReason), input.UserID, now), nil
	})
}

// MarkDamaged flags sellable units as damaged. Damaged never exceeds on_hand.
func (uc *inventoryUseCase) MarkDamaged(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	if err := validQuantity(input.Quantity); err != nil {
		return nil, err
	}
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "damage", key, false, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.Damaged
		room := l.OnHand - l.Damaged
		if room < 0 {
			room = 0
		}
		l.Damaged += min(input.Quantity, room)
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentDamaged, l.Damaged-previous, previous,
			input.Reference, reasonOr(input.Reason, "Stock damaged"), input.UserID, now), nil
	})
}

// ScrapStock disposes of damaged units, removing them from on_hand.
func (uc *inventoryUseCase) ScrapStock(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error) {
	if err := validQuantity(input.Quantity); err != nil {
		return nil, err
	}
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "scrap", key, false, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.OnHand
		scrapped := min(input.Quantity, l.Damaged)
		l.Damaged -= scrapped
		l.OnHand -= scrapped
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentScrapped, -scrapped, previous,
			input.Reference, reasonOr(input.Reason, "Damaged stock scrapped"), input.UserID, now), nil
	})
}

func (uc *inventoryUseCase) ApplyChange(ctx context.Context, key model.InventoryKey, change model.ChangeType, quantity int64, reference, reason string) (*model.InventoryLevel, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: negative quantity %d", ledgererr.ErrInvalidChange, quantity)
	}
	switch change {
	case model.ChangeSet, model.ChangeIncrement, model.ChangeDecrement:
	default:
		return nil, fmt.Errorf("%w: unknown change type %q", ledgererr.ErrInvalidChange, change)
	}

	return uc.mutate(ctx, "sync", key, true, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		now := time.Now()
		previous := l.OnHand
		switch change {
		case model.ChangeSet:
			l.OnHand = quantity
		case model.ChangeIncrement:
			l.OnHand = saturatingAdd(l.OnHand, quantity)
		case model.ChangeDecrement:
			l.OnHand = saturatingSub(l.OnHand, quantity)
		}
		l.RecalculateAvailable(now)
		return newAdjustment(ctx, key, model.AdjustmentAdjustment, l.OnHand-previous, previous,
			reference, reason, "", now), nil
	})
}

func (uc *inventoryUseCase) UpdateThresholds(ctx context.Context, input *dto.ThresholdsInput) (*model.InventoryLevel, error) {
	key := keyOf(input.ProductID, input.VariantID, input.LocationID)
	return uc.mutate(ctx, "thresholds", key, false, func(l *model.InventoryLevel) (*model.InventoryAdjustment, error) {
		for _, v := range []*int64{input.LowStockThreshold, input.ReorderPoint, input.ReorderQuantity, input.SafetyStock, input.Incoming} {
			if v != nil && *v < 0 {
				return nil, fmt.Errorf("%w: %d", ledgererr.ErrInvalidQuantity, *v)
			}
		}
		if input.LowStockThreshold != nil {
			l.LowStockThreshold = *input.LowStockThreshold
		}
		if input.ReorderPoint != nil {
			l.ReorderPoint = *input.ReorderPoint
		}
		if input.ReorderQuantity != nil {
			l.ReorderQuantity = *input.ReorderQuantity
		}
		if input.SafetyStock != nil {
			l.SafetyStock = *input.SafetyStock
		}
		if input.Incoming != nil {
			l.Incoming = *input.Incoming
		}
		l.RecalculateAvailable(time.Now())
		return nil, nil
	})
}

// saturatingAdd returns a+b for b >= 0, clamped at math.MaxInt64.
func saturatingAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// saturatingSub returns a-b clamped at zero. A value that is already negative
// (a corrective set) is left as is rather than being raised to zero.
func saturatingSub(a, b int64) int64 {
	if a < 0 {
		return a
	}
	if b >= a {
		return 0
	}
	return a - b
}

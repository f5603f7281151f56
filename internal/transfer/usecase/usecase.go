package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/location"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/lock"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fekuna/omnipos-inventory-service/internal/transfer"

type transferUseCase struct {
	repo      transfer.Repository
	locations location.UseCase
	inventory inventory.UseCase
	locker    lock.Locker
	tracer    trace.Tracer
	logger    logger.ZapLogger
}

func NewTransferUseCase(repo transfer.Repository, locations location.UseCase, inv inventory.UseCase, locker lock.Locker, log logger.ZapLogger) transfer.UseCase {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &transferUseCase{
		repo:      repo,
		locations: locations,
		inventory: inv,
		locker:    locker,
		tracer:    otel.Tracer(tracerName),
		logger:    log,
	}
}

// Reference is the adjustment reference every stock operation of a transfer carries.
func Reference(id string) string {
	return "transfer " + id
}

func lockKey(id string) string {
	return "transfer:" + id
}

func validItem(item *dto.TransferItemInput) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: product id is required", ledgererr.ErrInvalidTransfer)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ledgererr.ErrInvalidQuantity, item.Quantity)
	}
	return nil
}

// addItem merges quantities of the same product and variant into one line, so
// each line maps to at most one adjustment per side.
func addItem(t *model.StockTransfer, item *dto.TransferItemInput) {
	for i := range t.Items {
		if t.Items[i].ProductID == item.ProductID && t.Items[i].VariantID == item.VariantID {
			t.Items[i].Quantity += item.Quantity
			return
		}
	}
	t.Items = append(t.Items, model.TransferItem{
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
	})
}

func (uc *transferUseCase) CreateTransfer(ctx context.Context, input *dto.CreateTransferInput) (*model.StockTransfer, error) {
	if input.FromLocationID == "" || input.ToLocationID == "" {
		return nil, fmt.Errorf("%w: source and destination are required", ledgererr.ErrInvalidTransfer)
	}
	if input.FromLocationID == input.ToLocationID {
		return nil, fmt.Errorf("%w: source and destination are both %s", ledgererr.ErrInvalidTransfer, input.FromLocationID)
	}
	for _, id := range []string{input.FromLocationID, input.ToLocationID} {
		if _, err := uc.locations.GetLocation(ctx, id); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	t := &model.StockTransfer{
		ID:              uuid.New().String(),
		FromLocationID:  input.FromLocationID,
		ToLocationID:    input.ToLocationID,
		Status:          model.TransferPending,
		Items:           []model.TransferItem{},
		ExpectedArrival: input.ExpectedArrival,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.Notes != "" {
		notes := input.Notes
		t.Notes = &notes
	}
	for i := range input.Items {
		if err := validItem(&input.Items[i]); err != nil {
			return nil, err
		}
		addItem(t, &input.Items[i])
	}

	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	uc.logger.Info("transfer created",
		zap.String("transfer_id", t.ID),
		zap.String("from", t.FromLocationID),
		zap.String("to", t.ToLocationID),
		zap.Int("items", len(t.Items)),
	)
	return t, nil
}

func (uc *transferUseCase) AddItem(ctx context.Context, id string, item *dto.TransferItemInput) (*model.StockTransfer, error) {
	if err := validItem(item); err != nil {
		return nil, err
	}
	return uc.withTransfer(ctx, id, func(t *model.StockTransfer) error {
		if t.Status != model.TransferPending {
			return fmt.Errorf("%w: cannot add items to a %s transfer", ledgererr.ErrInvalidTransferStatus, t.Status)
		}
		addItem(t, item)
		return uc.save(ctx, t)
	})
}

func (uc *transferUseCase) GetTransfer(ctx context.Context, id string) (*model.StockTransfer, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *transferUseCase) ListTransfers(ctx context.Context, filters *dto.TransferFilters) ([]model.StockTransfer, error) {
	return uc.repo.FindAll(ctx, filters)
}

// withTransfer serialises every state change of one transfer.
func (uc *transferUseCase) withTransfer(ctx context.Context, id string, fn func(t *model.StockTransfer) error) (*model.StockTransfer, error) {
	unlock, err := uc.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *transferUseCase) save(ctx context.Context, t *model.StockTransfer) error {
	t.UpdatedAt = time.Now()
	return uc.repo.Update(ctx, t)
}

func (uc *transferUseCase) StartTransfer(ctx context.Context, id string) (*model.StockTransfer, error) {
	return uc.withTransfer(ctx, id, func(t *model.StockTransfer) error {
		if t.Status != model.TransferPending {
			return fmt.Errorf("%w: cannot start a %s transfer", ledgererr.ErrInvalidTransferStatus, t.Status)
		}
		return uc.start(ctx, t)
	})
}

func (uc *transferUseCase) CompleteTransfer(ctx context.Context, id string) (*model.StockTransfer, error) {
	ctx, span := uc.tracer.Start(ctx, "transfer.complete", trace.WithAttributes(attribute.String("transfer.id", id)))
	defer span.End()

	t, err := uc.withTransfer(ctx, id, func(t *model.StockTransfer) error {
		if !t.Status.Open() {
			return fmt.Errorf("%w: cannot complete a %s transfer", ledgererr.ErrInvalidTransferStatus, t.Status)
		}
		if t.Status == model.TransferPending {
			if err := uc.start(ctx, t); err != nil {
				return err
			}
		}
		return uc.finish(ctx, t)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete")
	}
	return t, err
}

func (uc *transferUseCase) CancelTransfer(ctx context.Context, id string) (*model.StockTransfer, error) {
	return uc.withTransfer(ctx, id, func(t *model.StockTransfer) error {
		if !t.Status.Open() {
			return fmt.Errorf("%w: cannot cancel a %s transfer", ledgererr.ErrInvalidTransferStatus, t.Status)
		}
		if err := uc.unwind(ctx, t); err != nil {
			return err
		}
		t.Status = model.TransferCancelled
		if err := uc.save(ctx, t); err != nil {
			return err
		}
		uc.logger.Info("transfer cancelled", zap.String("transfer_id", t.ID))
		return nil
	})
}

func (uc *transferUseCase) ResumeInProgress(ctx context.Context) (int, error) {
	pending, err := uc.repo.FindAll(ctx, &dto.TransferFilters{Status: model.TransferInProgress})
	if err != nil {
		return 0, err
	}

	var errs []error
	resumed := 0
	for _, p := range pending {
		_, err := uc.withTransfer(ctx, p.ID, func(t *model.StockTransfer) error {
			if t.Status != model.TransferInProgress {
				return nil
			}
			return uc.finish(ctx, t)
		})
		if err != nil {
			uc.logger.Error("failed to resume transfer", zap.String("transfer_id", p.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("transfer %s: %w", p.ID, err))
			continue
		}
		resumed++
	}
	if resumed > 0 {
		uc.logger.Info("resumed in-progress transfers", zap.Int("count", resumed))
	}
	return resumed, errors.Join(errs...)
}

// applied reports whether the ledger already holds the adjustment of one side
// of item. undo entries (a released reservation) cancel earlier ones. The
// adjustment is written in the same critical section as the level change, so
// this is exact even when the journal write after it never happened.
func (uc *transferUseCase) applied(ctx context.Context, t *model.StockTransfer, item *model.TransferItem, locationID string, typ, undo model.AdjustmentType) (bool, error) {
	entries, err := uc.inventory.ListAdjustments(ctx, &invdto.AdjustmentFilters{
		ProductID:  item.ProductID,
		LocationID: locationID,
		Reference:  Reference(t.ID),
	})
	if err != nil {
		return false, err
	}
	n := 0
	for _, e := range entries {
		if e.VariantID != item.VariantID {
			continue
		}
		switch e.Type {
		case typ:
			n++
		case undo:
			n--
		}
	}
	return n > 0, nil
}

func (uc *transferUseCase) stockInput(t *model.StockTransfer, item *model.TransferItem, locationID, reason string) *invdto.StockInput {
	return &invdto.StockInput{
		ProductID:  item.ProductID,
		VariantID:  item.VariantID,
		LocationID: locationID,
		Quantity:   item.Quantity,
		Reference:  Reference(t.ID),
		Reason:     reason,
	}
}

// start reserves every item at the source and moves t to in_progress. It is
// all-or-nothing: a failed reservation releases the ones made before it.
func (uc *transferUseCase) start(ctx context.Context, t *model.StockTransfer) error {
	for i := range t.Items {
		item := &t.Items[i]
		if item.Reserved {
			continue
		}
		done, err := uc.applied(ctx, t, item, t.FromLocationID, model.AdjustmentReserved, model.AdjustmentUnreserved)
		if err != nil {
			return err
		}
		if !done {
			_, err := uc.inventory.ReserveStock(ctx, uc.stockInput(t, item, t.FromLocationID, "Reserved for transfer"))
			if err != nil {
				if rerr := uc.releaseAll(ctx, t); rerr != nil {
					uc.logger.Error("failed to roll back transfer reservations", zap.String("transfer_id", t.ID), zap.Error(rerr))
				}
				if serr := uc.save(ctx, t); serr != nil {
					uc.logger.Error("failed to save transfer journal", zap.String("transfer_id", t.ID), zap.Error(serr))
				}
				return err
			}
		}
		item.Reserved = true
		if err := uc.save(ctx, t); err != nil {
			return err
		}
	}

	t.Status = model.TransferInProgress
	if err := uc.save(ctx, t); err != nil {
		return err
	}
	uc.logger.Info("transfer started", zap.String("transfer_id", t.ID))
	return nil
}

// releaseAll releases every reservation of t that the ledger still holds.
// Shipping consumes a reservation, so shipped items are skipped.
func (uc *transferUseCase) releaseAll(ctx context.Context, t *model.StockTransfer) error {
	var errs []error
	for i := range t.Items {
		item := &t.Items[i]
		shipped, err := uc.applied(ctx, t, item, t.FromLocationID, model.AdjustmentShipped, "")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if shipped {
			item.Reserved = false
			continue
		}
		held, err := uc.applied(ctx, t, item, t.FromLocationID, model.AdjustmentReserved, model.AdjustmentUnreserved)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if held {
			if _, err := uc.inventory.ReleaseStock(ctx, uc.stockInput(t, item, t.FromLocationID, "Transfer reservation released")); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		item.Reserved = false
	}
	return errors.Join(errs...)
}

// finish ships and receives every item, journaling each side before moving on,
// then marks t completed.
func (uc *transferUseCase) finish(ctx context.Context, t *model.StockTransfer) error {
	for i := range t.Items {
		item := &t.Items[i]

		if item.QuantityShipped < item.Quantity {
			done, err := uc.applied(ctx, t, item, t.FromLocationID, model.AdjustmentShipped, "")
			if err != nil {
				return err
			}
			if !done {
				if _, err := uc.inventory.CommitStock(ctx, uc.stockInput(t, item, t.FromLocationID, "Shipped for transfer")); err != nil {
					return err
				}
			}
			item.QuantityShipped = item.Quantity
			if err := uc.save(ctx, t); err != nil {
				return err
			}
		}

		if item.QuantityReceived < item.Quantity {
			done, err := uc.applied(ctx, t, item, t.ToLocationID, model.AdjustmentReceived, "")
			if err != nil {
				return err
			}
			if !done {
				if _, err := uc.inventory.ReceiveStock(ctx, uc.stockInput(t, item, t.ToLocationID, "Received from transfer")); err != nil {
					return err
				}
			}
			item.QuantityReceived = item.Quantity
			if err := uc.save(ctx, t); err != nil {
				return err
			}
		}
	}

	now := time.Now()
	t.Status = model.TransferCompleted
	t.ArrivedAt = &now
	if err := uc.save(ctx, t); err != nil {
		return err
	}
	uc.logger.Info("transfer completed",
		zap.String("transfer_id", t.ID),
		zap.String("from", t.FromLocationID),
		zap.String("to", t.ToLocationID),
	)
	return nil
}

// unwind undoes whatever part of t has taken effect: reservations are
// released and stock that left the source without arriving is returned.
func (uc *transferUseCase) unwind(ctx context.Context, t *model.StockTransfer) error {
	for i := range t.Items {
		item := &t.Items[i]

		shipped, err := uc.applied(ctx, t, item, t.FromLocationID, model.AdjustmentShipped, "")
		if err != nil {
			return err
		}
		if !shipped {
			continue
		}
		received, err := uc.applied(ctx, t, item, t.ToLocationID, model.AdjustmentReceived, "")
		if err != nil {
			return err
		}
		if received {
			continue
		}
		returned, err := uc.applied(ctx, t, item, t.FromLocationID, model.AdjustmentReturned, "")
		if err != nil {
			return err
		}
		if !returned {
			if _, err := uc.inventory.ReturnStock(ctx, uc.stockInput(t, item, t.FromLocationID, "Transfer cancelled")); err != nil {
				return err
			}
		}
		item.QuantityShipped = 0
		if err := uc.save(ctx, t); err != nil {
			return err
		}
	}
	return uc.releaseAll(ctx, t)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	invrepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	invuc "github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	locrepo "github.com/fekuna/omnipos-inventory-service/internal/location/repository"
	locuc "github.com/fekuna/omnipos-inventory-service/internal/location/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/lock"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/repository"
)

const (
	source = "warehouse-main"
	dest   = "store-1"
)

// flakyRepository fails the first journal write that matches failOn, as if the
// process had stopped right after the stock operation before it.
type flakyRepository struct {
	transfer.Repository
	mu     sync.Mutex
	failOn func(t *model.StockTransfer) bool
}

var errCrash = errors.New("simulated crash")

func (r *flakyRepository) Update(ctx context.Context, t *model.StockTransfer) error {
	r.mu.Lock()
	fail := r.failOn != nil && r.failOn(t)
	if fail {
		r.failOn = nil
	}
	r.mu.Unlock()
	if fail {
		return errCrash
	}
	return r.Repository.Update(ctx, t)
}

type fixture struct {
	inv  inventory.UseCase
	repo *flakyRepository
	uc   transfer.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	locker := lock.NewLocal()

	locations := locuc.NewLocationUseCase(locrepo.NewMemoryRepository(), log)
	if err := locations.AddLocation(ctx, model.NewWarehouse(source, "Main")); err != nil {
		t.Fatalf("add source: %v", err)
	}
	if err := locations.AddLocation(ctx, model.NewStore(dest, "Store")); err != nil {
		t.Fatalf("add dest: %v", err)
	}

	inv := invuc.NewInventoryUseCase(invrepo.NewMemoryRepository(), locker, log)
	repo := &flakyRepository{Repository: repository.NewMemoryRepository()}
	return &fixture{
		inv:  inv,
		repo: repo,
		uc:   NewTransferUseCase(repo, locations, inv, locker, log),
	}
}

func (f *fixture) set(t *testing.T, product, loc string, onHand int64) {
	t.Helper()
	if _, err := f.inv.SetInventory(context.Background(), &invdto.SetInventoryInput{
		ProductID: product, LocationID: loc, OnHand: onHand,
	}); err != nil {
		t.Fatalf("set inventory: %v", err)
	}
}

func (f *fixture) level(t *testing.T, product, loc string) *model.InventoryLevel {
	t.Helper()
	level, err := f.inv.GetInventory(context.Background(), model.InventoryKey{ProductID: product, LocationID: loc})
	if err != nil {
		t.Fatalf("get inventory %s@%s: %v", product, loc, err)
	}
	return level
}

func (f *fixture) create(t *testing.T, items ...dto.TransferItemInput) *model.StockTransfer {
	t.Helper()
	tr, err := f.uc.CreateTransfer(context.Background(), &dto.CreateTransferInput{
		FromLocationID: source,
		ToLocationID:   dest,
		Items:          items,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	return tr
}

func TestCreateTransferValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTransfer(ctx, &dto.CreateTransferInput{FromLocationID: source, ToLocationID: source})
	if !errors.Is(err, ledgererr.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer for same location, got %v", err)
	}

	_, err = f.uc.CreateTransfer(ctx, &dto.CreateTransferInput{FromLocationID: source, ToLocationID: "nowhere"})
	if !errors.Is(err, ledgererr.ErrLocationNotFound) {
		t.Errorf("expected ErrLocationNotFound, got %v", err)
	}

	_, err = f.uc.CreateTransfer(ctx, &dto.CreateTransferInput{
		FromLocationID: source, ToLocationID: dest,
		Items: []dto.TransferItemInput{{ProductID: "prod-001", Quantity: 0}},
	})
	if !errors.Is(err, ledgererr.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestCompleteTransferMovesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 100)
	f.set(t, "prod-001", dest, 10)

	tr := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 50})
	if tr.Status != model.TransferPending {
		t.Fatalf("expected pending, got %s", tr.Status)
	}

	done, err := f.uc.CompleteTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("complete transfer: %v", err)
	}
	if done.Status != model.TransferCompleted || done.ArrivedAt == nil {
		t.Errorf("expected completed with arrival time, got %s", done)
	}

	src, dst := f.level(t, "prod-001", source), f.level(t, "prod-001", dest)
	if src.OnHand != 50 || src.Committed != 0 || dst.OnHand != 60 {
		t.Errorf("expected source 50/0 and dest 60, got %s and %s", src, dst)
	}
	if src.OnHand+dst.OnHand != 110 {
		t.Errorf("transfer must conserve stock, total %d", src.OnHand+dst.OnHand)
	}

	history, _ := f.inv.ListAdjustments(ctx, &invdto.AdjustmentFilters{Reference: Reference(tr.ID)})
	types := map[model.AdjustmentType]string{}
	for _, a := range history {
		types[a.Type] = a.LocationID
	}
	if len(history) != 3 || types[model.AdjustmentReserved] != source ||
		types[model.AdjustmentShipped] != source || types[model.AdjustmentReceived] != dest {
		t.Errorf("unexpected transfer adjustments: %+v", history)
	}

	if _, err := f.uc.CompleteTransfer(ctx, tr.ID); !errors.Is(err, ledgererr.ErrInvalidTransferStatus) {
		t.Errorf("expected ErrInvalidTransferStatus on second completion, got %v", err)
	}
	if _, err := f.uc.CompleteTransfer(ctx, "missing"); !errors.Is(err, ledgererr.ErrTransferNotFound) {
		t.Errorf("expected ErrTransferNotFound, got %v", err)
	}
}

func TestTransferKeepsOtherReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 100)
	if _, err := f.inv.ReserveStock(ctx, &invdto.StockInput{ProductID: "prod-001", LocationID: source, Quantity: 30, Reference: "ORD-1"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	tr := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 50})
	if _, err := f.uc.CompleteTransfer(ctx, tr.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	src := f.level(t, "prod-001", source)
	if src.OnHand != 50 || src.Committed != 30 || src.Available != 20 {
		t.Errorf("order reservation must survive the transfer, got %s", src)
	}

	tr = f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 25})
	if _, err := f.uc.CompleteTransfer(ctx, tr.ID); !errors.Is(err, ledgererr.ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory when only 20 are free, got %v", err)
	}
}

func TestStartTransferIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-a", source, 10)
	f.set(t, "prod-b", source, 1)

	tr := f.create(t,
		dto.TransferItemInput{ProductID: "prod-a", Quantity: 5},
		dto.TransferItemInput{ProductID: "prod-b", Quantity: 5},
	)

	_, err := f.uc.StartTransfer(ctx, tr.ID)
	var insufficient *ledgererr.InsufficientInventoryError
	if !errors.As(err, &insufficient) || insufficient.ProductID != "prod-b" {
		t.Fatalf("expected insufficient inventory for prod-b, got %v", err)
	}

	if a := f.level(t, "prod-a", source); a.Committed != 0 || a.Available != 10 {
		t.Errorf("prod-a reservation must be rolled back, got %s", a)
	}
	got, _ := f.uc.GetTransfer(ctx, tr.ID)
	if got.Status != model.TransferPending {
		t.Errorf("expected transfer to stay pending, got %s", got.Status)
	}
	for _, item := range got.Items {
		if item.Reserved {
			t.Errorf("item %s still marked reserved", item.ProductID)
		}
	}

	// Once stock arrives the same transfer can start.
	f.set(t, "prod-b", source, 5)
	started, err := f.uc.StartTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("start after restock: %v", err)
	}
	if started.Status != model.TransferInProgress {
		t.Errorf("expected in_progress, got %s", started.Status)
	}
	if a := f.level(t, "prod-a", source); a.Committed != 5 {
		t.Errorf("expected prod-a committed 5, got %s", a)
	}
}

func TestAddItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 20)

	tr := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 5})
	tr, err := f.uc.AddItem(ctx, tr.ID, &dto.TransferItemInput{ProductID: "prod-001", Quantity: 3})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(tr.Items) != 1 || tr.Items[0].Quantity != 8 {
		t.Errorf("expected one merged line of 8, got %+v", tr.Items)
	}

	if _, err := f.uc.StartTransfer(ctx, tr.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = f.uc.AddItem(ctx, tr.ID, &dto.TransferItemInput{ProductID: "prod-002", Quantity: 1})
	if !errors.Is(err, ledgererr.ErrInvalidTransferStatus) {
		t.Errorf("expected ErrInvalidTransferStatus, got %v", err)
	}
}

func TestCancelTransferReleasesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 40)

	tr := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 15})
	if _, err := f.uc.StartTransfer(ctx, tr.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if src := f.level(t, "prod-001", source); src.Committed != 15 {
		t.Fatalf("expected 15 committed, got %s", src)
	}

	cancelled, err := f.uc.CancelTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.TransferCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if src := f.level(t, "prod-001", source); src.OnHand != 40 || src.Committed != 0 || src.Available != 40 {
		t.Errorf("expected reservation released, got %s", src)
	}

	if _, err := f.uc.CancelTransfer(ctx, tr.ID); !errors.Is(err, ledgererr.ErrInvalidTransferStatus) {
		t.Errorf("expected ErrInvalidTransferStatus, got %v", err)
	}
}

func TestResumeAfterCrashDoesNotDoubleApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 100)

	tr := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 50})
	// Stop right after the source was debited, before the journal records it.
	f.repo.failOn = func(t *model.StockTransfer) bool { return t.Items[0].QuantityShipped > 0 }

	if _, err := f.uc.CompleteTransfer(ctx, tr.ID); !errors.Is(err, errCrash) {
		t.Fatalf("expected simulated crash, got %v", err)
	}
	stored, _ := f.uc.GetTransfer(ctx, tr.ID)
	if stored.Status != model.TransferInProgress || stored.Items[0].QuantityShipped != 0 {
		t.Fatalf("expected in_progress with stale journal, got %s %+v", stored, stored.Items)
	}

	n, err := f.uc.ResumeInProgress(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 resumed transfer, got %d (%v)", n, err)
	}

	src, dst := f.level(t, "prod-001", source), f.level(t, "prod-001", dest)
	if src.OnHand != 50 || src.Committed != 0 || dst.OnHand != 50 {
		t.Errorf("expected exactly one debit and one credit, got %s and %s", src, dst)
	}

	done, _ := f.uc.GetTransfer(ctx, tr.ID)
	if done.Status != model.TransferCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	if n, err := f.uc.ResumeInProgress(ctx); err != nil || n != 0 {
		t.Errorf("nothing left to resume, got %d (%v)", n, err)
	}
}

func TestCancelAfterCrashReturnsShippedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 100)

	tr := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 30})
	f.repo.failOn = func(t *model.StockTransfer) bool { return t.Items[0].QuantityShipped > 0 }
	if _, err := f.uc.CompleteTransfer(ctx, tr.ID); !errors.Is(err, errCrash) {
		t.Fatalf("expected simulated crash, got %v", err)
	}
	if src := f.level(t, "prod-001", source); src.OnHand != 70 {
		t.Fatalf("expected source debited to 70, got %s", src)
	}

	if _, err := f.uc.CancelTransfer(ctx, tr.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	src := f.level(t, "prod-001", source)
	if src.OnHand != 100 || src.Committed != 0 || src.Available != 100 {
		t.Errorf("expected shipped stock returned, got %s", src)
	}
	if _, err := f.inv.GetInventory(ctx, model.InventoryKey{ProductID: "prod-001", LocationID: dest}); !errors.Is(err, ledgererr.ErrInventoryNotFound) {
		t.Errorf("destination must never have been credited, got %v", err)
	}
}

func TestListTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.set(t, "prod-001", source, 100)

	first := f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 1})
	f.create(t, dto.TransferItemInput{ProductID: "prod-001", Quantity: 1})
	if _, err := f.uc.CompleteTransfer(ctx, first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	all, _ := f.uc.ListTransfers(ctx, nil)
	pending, _ := f.uc.ListTransfers(ctx, &dto.TransferFilters{Status: model.TransferPending})
	atStore, _ := f.uc.ListTransfers(ctx, &dto.TransferFilters{LocationID: dest})
	if len(all) != 2 || len(pending) != 1 || len(atStore) != 2 {
		t.Errorf("unexpected listing sizes: all=%d pending=%d store=%d", len(all), len(pending), len(atStore))
	}
}

func TestCompleteManyItemsWithSharedLocker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 150
	var forward, backward []dto.TransferItemInput
	for i := 0; i < n; i++ {
		product := fmt.Sprintf("sku-%d", i)
		f.set(t, product, source, 10)
		forward = append(forward, dto.TransferItemInput{ProductID: product, Quantity: 2})
	}
	for i := n - 1; i >= 0; i-- {
		backward = append(backward, forward[i])
	}
	first := f.create(t, forward...)
	second := f.create(t, backward...)

	errs := make(chan error, 2)
	for _, id := range []string{first.ID, second.ID} {
		go func(id string) {
			_, err := f.uc.CompleteTransfer(ctx, id)
			errs <- err
		}(id)
	}
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if err != nil {
				t.Fatalf("complete transfer: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("transfers did not complete; transfer and stock locks are blocking each other")
		}
	}

	for i := 0; i < n; i++ {
		product := fmt.Sprintf("sku-%d", i)
		if src, dst := f.level(t, product, source), f.level(t, product, dest); src.OnHand != 6 || src.Committed != 0 || dst.OnHand != 4 {
			t.Fatalf("%s: unexpected levels %s / %s", product, src, dst)
		}
	}
}

package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/lock"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/segmentio/kafka-go"
)

// fakeReader hands out queued messages, then blocks until the context ends.
type fakeReader struct {
	mu       sync.Mutex
	messages [][]byte
	failOnce bool
	drained  chan struct{}
}

func newFakeReader(values ...[]byte) *fakeReader {
	return &fakeReader{messages: values, drained: make(chan struct{})}
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.failOnce {
		r.failOnce = false
		r.mu.Unlock()
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(r.messages) > 0 {
		v := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return kafka.Message{Value: v}, nil
	}
	r.mu.Unlock()

	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error { return nil }

func event(t *testing.T, typ, orderID string, qty int64) []byte {
	t.Helper()
	return orderEvent(t, typ, orderID, OrderItemPayload{ProductID: "prod-001", Quantity: qty})
}

func orderEvent(t *testing.T, typ, orderID string, items ...OrderItemPayload) []byte {
	t.Helper()
	b, err := json.Marshal(OrderEvent{
		EventID:   orderID + "-" + typ,
		EventType: typ,
		Payload: OrderPayload{
			ID:    orderID,
			Items: items,
		},
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return b
}

func TestListenerAppliesOrderLifecycle(t *testing.T) {
	uc := usecase.NewInventoryUseCase(repository.NewMemoryRepository(), lock.NewLocal(), logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := uc.SetInventory(ctx, &dto.SetInventoryInput{
		ProductID: "prod-001", LocationID: model.DefaultWarehouseID, OnHand: 100,
	}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reader := newFakeReader(
		event(t, EventOrderCreated, "ORD-1", 30),
		[]byte("not json"),
		event(t, "OrderPaid", "ORD-1", 30),
		event(t, EventOrderFulfilled, "ORD-1", 30),
		event(t, EventOrderCreated, "ORD-2", 10),
		event(t, EventOrderCancelled, "ORD-2", 10),
		event(t, EventOrderReturned, "ORD-1", 5),
	)
	reader.failOnce = true

	l := NewInventoryListener(reader, uc, logger.NewNop())
	l.retry = time.Millisecond

	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	select {
	case <-reader.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not drain messages")
	}
	cancel()
	<-done

	level, err := uc.GetInventory(context.Background(), model.InventoryKey{
		ProductID: "prod-001", LocationID: model.DefaultWarehouseID,
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if level.OnHand != 75 || level.Committed != 0 || level.Available != 75 {
		t.Errorf("expected on_hand=75 committed=0 available=75, got %s", level)
	}

	history, _ := uc.GetAdjustmentHistory(context.Background(), "prod-001", 0)
	// set, reserve, commit, reserve, release, return
	if len(history) != 6 {
		t.Fatalf("expected 6 adjustments, got %d", len(history))
	}
	if history[0].Type != model.AdjustmentReturned || *history[0].Reference != "ORD-1" {
		t.Errorf("unexpected latest adjustment: %+v", history[0])
	}
	if history[0].CreatedBy == nil || *history[0].CreatedBy != systemUser {
		t.Errorf("expected created_by system, got %v", history[0].CreatedBy)
	}
}

// drain runs the listener until every queued message has been read.
func drain(t *testing.T, l *InventoryListener, reader *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	select {
	case <-reader.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not drain messages")
	}
	cancel()
	<-done
}

func TestListenerReservesOrdersAllOrNothing(t *testing.T) {
	uc := usecase.NewInventoryUseCase(repository.NewMemoryRepository(), lock.NewLocal(), logger.NewNop())
	ctx := context.Background()

	for _, set := range []*dto.SetInventoryInput{
		{ProductID: "prod-001", LocationID: model.DefaultWarehouseID, OnHand: 5},
		{ProductID: "prod-002", LocationID: model.DefaultWarehouseID, OnHand: 10},
	} {
		if _, err := uc.SetInventory(ctx, set); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	reader := newFakeReader(
		orderEvent(t, EventOrderCreated, "ORD-A", OrderItemPayload{ProductID: "prod-001", Quantity: 5}),
		// redelivered
		orderEvent(t, EventOrderCreated, "ORD-A", OrderItemPayload{ProductID: "prod-001", Quantity: 5}),
		// prod-002 reserves, then prod-001 has nothing left
		orderEvent(t, EventOrderCreated, "ORD-B",
			OrderItemPayload{ProductID: "prod-002", Quantity: 2},
			OrderItemPayload{ProductID: "prod-001", Quantity: 3},
		),
		orderEvent(t, EventOrderCancelled, "ORD-B",
			OrderItemPayload{ProductID: "prod-002", Quantity: 2},
			OrderItemPayload{ProductID: "prod-001", Quantity: 3},
		),
		// fulfilling more than was reserved ships only the reservation
		orderEvent(t, EventOrderFulfilled, "ORD-A", OrderItemPayload{ProductID: "prod-001", Quantity: 7}),
	)
	drain(t, NewInventoryListener(reader, uc, logger.NewNop()), reader)

	p1, err := uc.GetInventory(ctx, model.InventoryKey{ProductID: "prod-001", LocationID: model.DefaultWarehouseID})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if p1.OnHand != 0 || p1.Committed != 0 {
		t.Errorf("expected prod-001 on_hand=0 committed=0, got %s", p1)
	}

	p2, err := uc.GetInventory(ctx, model.InventoryKey{ProductID: "prod-002", LocationID: model.DefaultWarehouseID})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if p2.OnHand != 10 || p2.Committed != 0 || p2.Available != 10 {
		t.Errorf("expected prod-002 untouched, got %s", p2)
	}

	// set, reserve A, ship A
	h1, _ := uc.GetAdjustmentHistory(ctx, "prod-001", 0)
	if len(h1) != 3 {
		t.Fatalf("expected 3 prod-001 adjustments, got %d", len(h1))
	}
	if h1[0].Type != model.AdjustmentShipped || h1[0].Quantity != -5 {
		t.Errorf("expected shipment of 5, got %+v", h1[0])
	}

	// set, reserve B, roll back B
	h2, _ := uc.GetAdjustmentHistory(ctx, "prod-002", 0)
	if len(h2) != 3 {
		t.Fatalf("expected 3 prod-002 adjustments, got %d", len(h2))
	}
	if h2[0].Type != model.AdjustmentUnreserved || h2[0].Quantity != -2 {
		t.Errorf("expected rollback release of 2, got %+v", h2[0])
	}
}

func TestListenerCancelKeepsOtherOrdersReservations(t *testing.T) {
	uc := usecase.NewInventoryUseCase(repository.NewMemoryRepository(), lock.NewLocal(), logger.NewNop())
	ctx := context.Background()

	if _, err := uc.SetInventory(ctx, &dto.SetInventoryInput{
		ProductID: "prod-001", LocationID: model.DefaultWarehouseID, OnHand: 10,
	}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reader := newFakeReader(
		event(t, EventOrderCreated, "ORD-A", 4),
		event(t, EventOrderCreated, "ORD-B", 3),
		// B only ever held 3
		event(t, EventOrderCancelled, "ORD-B", 6),
		event(t, EventOrderCancelled, "ORD-B", 3),
		// C never reserved
		event(t, EventOrderFulfilled, "ORD-C", 2),
	)
	drain(t, NewInventoryListener(reader, uc, logger.NewNop()), reader)

	level, err := uc.GetInventory(ctx, model.InventoryKey{ProductID: "prod-001", LocationID: model.DefaultWarehouseID})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if level.OnHand != 10 || level.Committed != 4 || level.Available != 6 {
		t.Errorf("expected on_hand=10 committed=4 available=6, got %s", level)
	}
}

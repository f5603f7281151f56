package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/broker"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"go.uber.org/zap"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"
	EventOrderFulfilled = "OrderFulfilled"
	EventOrderReturned  = "OrderReturned"

	systemUser = "system"
)

type InventoryListener struct {
	consumer broker.MessageReader
	uc       inventory.UseCase
	logger   logger.ZapLogger
	retry    time.Duration
}

func NewInventoryListener(consumer broker.MessageReader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		retry:    time.Second,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.retry):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID         string             `json:"id"`
	LocationID string             `json:"location_id"`
	Items      []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type stockOp func(ctx context.Context, input *dto.StockInput) (*model.InventoryLevel, error)

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	switch event.EventType {
	case EventOrderCreated, EventOrderCancelled, EventOrderFulfilled, EventOrderReturned:
	default:
		return
	}

	locationID := event.Payload.LocationID
	if locationID == "" {
		locationID = model.DefaultWarehouseID
	}

	l.logger.Info("Processing order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID),
	)

	inputs := make([]*dto.StockInput, 0, len(event.Payload.Items))
	for _, item := range event.Payload.Items {
		inputs = append(inputs, &dto.StockInput{
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			LocationID: locationID,
			Quantity:   item.Quantity,
			Reference:  event.Payload.ID,
			UserID:     systemUser,
		})
	}

	switch event.EventType {
	case EventOrderCreated:
		l.reserveOrder(ctx, event.EventType, inputs)
	case EventOrderCancelled:
		l.settleOrder(ctx, event.EventType, inputs, l.uc.ReleaseStock, "Order cancelled")
	case EventOrderFulfilled:
		l.settleOrder(ctx, event.EventType, inputs, l.uc.CommitStock, "Order fulfilled")
	case EventOrderReturned:
		for _, input := range inputs {
			input.Reason = "Order returned"
			if _, err := l.uc.ReturnStock(ctx, input); err != nil {
				l.logFailure(event.EventType, input, err)
			}
		}
	}
}

// reserveOrder reserves every item of the order or none of them. Keys the
// order already holds are skipped, so a redelivered event reserves nothing.
func (l *InventoryListener) reserveOrder(ctx context.Context, eventType string, inputs []*dto.StockInput) {
	var reserved []*dto.StockInput
	touched := make(map[model.InventoryKey]bool)

	for _, input := range inputs {
		key := keyOf(input)
		if !touched[key] {
			held, err := l.held(ctx, input)
			if err != nil {
				l.logFailure(eventType, input, err)
				l.rollback(ctx, reserved)
				return
			}
			if held > 0 {
				l.logger.Info("Order already holds a reservation, skipping item",
					zap.String("order_id", input.Reference),
					zap.String("inventory_key", key.String()),
				)
				continue
			}
		}

		input.Reason = "Stock reserved for order"
		if _, err := l.uc.ReserveStock(ctx, input); err != nil {
			l.logFailure(eventType, input, err)
			l.rollback(ctx, reserved)
			return
		}
		touched[key] = true
		reserved = append(reserved, input)
	}
}

// rollback releases reservations made earlier in the same event, newest first.
func (l *InventoryListener) rollback(ctx context.Context, reserved []*dto.StockInput) {
	for i := len(reserved) - 1; i >= 0; i-- {
		input := *reserved[i]
		input.Reason = "Order reservation rolled back"
		if _, err := l.uc.ReleaseStock(ctx, &input); err != nil {
			l.logger.Error("Failed to roll back order reservation",
				zap.String("order_id", input.Reference),
				zap.String("product_id", input.ProductID),
				zap.Error(err),
			)
		}
	}
}

// settleOrder releases or ships at most what the order still holds on each key.
func (l *InventoryListener) settleOrder(ctx context.Context, eventType string, inputs []*dto.StockInput, op stockOp, reason string) {
	for _, input := range inputs {
		held, err := l.held(ctx, input)
		if err != nil {
			l.logFailure(eventType, input, err)
			continue
		}
		if held <= 0 {
			l.logger.Warn("Order holds no reservation, skipping item",
				zap.String("event_type", eventType),
				zap.String("order_id", input.Reference),
				zap.String("inventory_key", keyOf(input).String()),
			)
			continue
		}
		if input.Quantity > held {
			input.Quantity = held
		}
		input.Reason = reason
		if _, err := op(ctx, input); err != nil {
			l.logFailure(eventType, input, err)
		}
	}
}

// held is the quantity the order still has reserved on the input's key, summed
// from the reserve, release and ship adjustments recorded under the order id.
func (l *InventoryListener) held(ctx context.Context, input *dto.StockInput) (int64, error) {
	entries, err := l.uc.ListAdjustments(ctx, &dto.AdjustmentFilters{
		ProductID:  input.ProductID,
		LocationID: input.LocationID,
		Reference:  input.Reference,
	})
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range entries {
		if e.VariantID != input.VariantID {
			continue
		}
		switch e.Type {
		case model.AdjustmentReserved, model.AdjustmentUnreserved, model.AdjustmentShipped:
			n += e.Quantity
		}
	}
	return n, nil
}

func (l *InventoryListener) logFailure(eventType string, input *dto.StockInput, err error) {
	l.logger.Error("Failed to apply order event to inventory",
		zap.String("event_type", eventType),
		zap.String("order_id", input.Reference),
		zap.String("product_id", input.ProductID),
		zap.Error(err),
	)
}

func keyOf(input *dto.StockInput) model.InventoryKey {
	return model.InventoryKey{ProductID: input.ProductID, VariantID: input.VariantID, LocationID: input.LocationID}
}

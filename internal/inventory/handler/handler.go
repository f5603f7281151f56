package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/rpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.inventory.v1.InventoryService"

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) ServiceName() string { return ServiceName }

func (h *InventoryHandler) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"SetInventory":         h.SetInventory,
		"CycleCount":           h.CycleCount,
		"ReserveStock":         h.stockMethod(h.uc.ReserveStock),
		"ReleaseStock":         h.stockMethod(h.uc.ReleaseStock),
		"CommitStock":          h.stockMethod(h.uc.CommitStock),
		"ReceiveStock":         h.stockMethod(h.uc.ReceiveStock),
		"ReturnStock":          h.stockMethod(h.uc.ReturnStock),
		"MarkDamaged":          h.stockMethod(h.uc.MarkDamaged),
		"ScrapStock":           h.stockMethod(h.uc.ScrapStock),
		"UpdateThresholds":     h.UpdateThresholds,
		"GetInventory":         h.GetInventory,
		"GetStockStatus":       h.GetStockStatus,
		"GetProductInventory":  h.GetProductInventory,
		"ListLowStock":         h.listMethod(h.uc.GetLowStock),
		"ListReorderNeeded":    h.listMethod(h.uc.GetReorderNeeded),
		"ListOutOfStock":       h.listMethod(h.uc.GetOutOfStock),
		"ListAdjustments":      h.ListAdjustments,
		"GetAdjustmentHistory": h.GetAdjustmentHistory,
	}
}

type keyRequest struct {
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id"`
	LocationID string `json:"location_id"`
}

func (r *keyRequest) key() model.InventoryKey {
	return model.InventoryKey{ProductID: r.ProductID, VariantID: r.VariantID, LocationID: r.LocationID}
}

func (r *keyRequest) validate() error {
	if r.ProductID == "" {
		return rpc.Required("product_id")
	}
	if r.LocationID == "" {
		return rpc.Required("location_id")
	}
	return nil
}

type stockRequest struct {
	keyRequest
	Quantity  int64  `json:"quantity"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

type setRequest struct {
	keyRequest
	OnHand    int64  `json:"on_hand"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

func levelResponse(level *model.InventoryLevel) (*structpb.Struct, error) {
	return rpc.Encode(map[string]any{"inventory": level})
}

func (h *InventoryHandler) stockMethod(op func(context.Context, *dto.StockInput) (*model.InventoryLevel, error)) rpc.Method {
	return func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		var in stockRequest
		if err := rpc.Decode(req, &in); err != nil {
			return nil, err
		}
		if err := in.validate(); err != nil {
			return nil, err
		}
		level, err := op(ctx, &dto.StockInput{
			ProductID:  in.ProductID,
			VariantID:  in.VariantID,
			LocationID: in.LocationID,
			Quantity:   in.Quantity,
			Reference:  in.Reference,
			Reason:     in.Reason,
		})
		if err != nil {
			return nil, rpc.Error(err)
		}
		return levelResponse(level)
	}
}

func (h *InventoryHandler) setMethod(ctx context.Context, req *structpb.Struct, op func(context.Context, *dto.SetInventoryInput) (*model.InventoryLevel, error)) (*structpb.Struct, error) {
	var in setRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	level, err := op(ctx, &dto.SetInventoryInput{
		ProductID:  in.ProductID,
		VariantID:  in.VariantID,
		LocationID: in.LocationID,
		OnHand:     in.OnHand,
		Reference:  in.Reference,
		Reason:     in.Reason,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return levelResponse(level)
}

func (h *InventoryHandler) SetInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.setMethod(ctx, req, h.uc.SetInventory)
}

func (h *InventoryHandler) CycleCount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.setMethod(ctx, req, h.uc.CycleCount)
}

func (h *InventoryHandler) UpdateThresholds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		keyRequest
		LowStockThreshold *int64 `json:"low_stock_threshold"`
		ReorderPoint      *int64 `json:"reorder_point"`
		ReorderQuantity   *int64 `json:"reorder_quantity"`
		SafetyStock       *int64 `json:"safety_stock"`
		Incoming          *int64 `json:"incoming"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	level, err := h.uc.UpdateThresholds(ctx, &dto.ThresholdsInput{
		ProductID:         in.ProductID,
		VariantID:         in.VariantID,
		LocationID:        in.LocationID,
		LowStockThreshold: in.LowStockThreshold,
		ReorderPoint:      in.ReorderPoint,
		ReorderQuantity:   in.ReorderQuantity,
		SafetyStock:       in.SafetyStock,
		Incoming:          in.Incoming,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return levelResponse(level)
}

func (h *InventoryHandler) GetInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in keyRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	level, err := h.uc.GetInventory(ctx, in.key())
	if err != nil {
		return nil, rpc.Error(err)
	}
	return levelResponse(level)
}

func (h *InventoryHandler) GetStockStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in keyRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	level, err := h.uc.GetInventory(ctx, in.key())
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{
		"available":     level.Available,
		"low_stock":     level.IsLowStock(),
		"out_of_stock":  level.IsOutOfStock(),
		"needs_reorder": level.NeedsReorder(),
	})
}

// GetProductInventory returns every location row of a product and the total
// available across them.
func (h *InventoryHandler) GetProductInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in keyRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, rpc.Required("product_id")
	}
	levels, err := h.uc.GetAllForProduct(ctx, in.ProductID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	total, err := h.uc.GetTotalAvailable(ctx, in.ProductID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{
		"inventory":       levels,
		"total_available": total,
	})
}

func (h *InventoryHandler) listMethod(list func(context.Context) ([]model.InventoryLevel, error)) rpc.Method {
	return func(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
		items, err := list(ctx)
		if err != nil {
			return nil, rpc.Error(err)
		}
		return rpc.Encode(map[string]any{
			"items": items,
			"total": len(items),
		})
	}
}

func (h *InventoryHandler) GetAdjustmentHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ProductID string `json:"product_id"`
		Limit     int    `json:"limit"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, rpc.Required("product_id")
	}
	items, err := h.uc.GetAdjustmentHistory(ctx, in.ProductID, in.Limit)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"adjustments": items})
}

func (h *InventoryHandler) ListAdjustments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ProductID  string     `json:"product_id"`
		LocationID string     `json:"location_id"`
		Type       string     `json:"adjustment_type"`
		Reference  string     `json:"reference"`
		StartDate  *time.Time `json:"start_date"`
		EndDate    *time.Time `json:"end_date"`
		Limit      int        `json:"limit"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	items, err := h.uc.ListAdjustments(ctx, &dto.AdjustmentFilters{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Type:       model.AdjustmentType(in.Type),
		Reference:  in.Reference,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Limit:      in.Limit,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"adjustments": items})
}

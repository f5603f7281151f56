package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/rpc"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.inventory.v1.TransferService"

type TransferHandler struct {
	uc     transfer.UseCase
	logger logger.ZapLogger
}

func NewTransferHandler(uc transfer.UseCase, log logger.ZapLogger) *TransferHandler {
	return &TransferHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *TransferHandler) ServiceName() string { return ServiceName }

func (h *TransferHandler) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"CreateTransfer":   h.CreateTransfer,
		"AddItem":          h.AddItem,
		"GetTransfer":      h.byID(h.uc.GetTransfer),
		"ListTransfers":    h.ListTransfers,
		"StartTransfer":    h.byID(h.uc.StartTransfer),
		"CompleteTransfer": h.byID(h.uc.CompleteTransfer),
		"CancelTransfer":   h.byID(h.uc.CancelTransfer),
	}
}

type itemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

func (r itemRequest) toInput() dto.TransferItemInput {
	return dto.TransferItemInput{ProductID: r.ProductID, VariantID: r.VariantID, Quantity: r.Quantity}
}

func transferResponse(t *model.StockTransfer) (*structpb.Struct, error) {
	return rpc.Encode(map[string]any{"transfer": t})
}

func (h *TransferHandler) CreateTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		FromLocationID  string        `json:"from_location_id"`
		ToLocationID    string        `json:"to_location_id"`
		Notes           string        `json:"notes"`
		ExpectedArrival *time.Time    `json:"expected_arrival"`
		Items           []itemRequest `json:"items"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	input := &dto.CreateTransferInput{
		FromLocationID:  in.FromLocationID,
		ToLocationID:    in.ToLocationID,
		Notes:           in.Notes,
		ExpectedArrival: in.ExpectedArrival,
	}
	for _, item := range in.Items {
		input.Items = append(input.Items, item.toInput())
	}

	t, err := h.uc.CreateTransfer(ctx, input)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return transferResponse(t)
}

func (h *TransferHandler) AddItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
		itemRequest
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, rpc.Required("id")
	}
	item := in.toInput()
	t, err := h.uc.AddItem(ctx, in.ID, &item)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return transferResponse(t)
}

func (h *TransferHandler) byID(op func(context.Context, string) (*model.StockTransfer, error)) rpc.Method {
	return func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		var in struct {
			ID string `json:"id"`
		}
		if err := rpc.Decode(req, &in); err != nil {
			return nil, err
		}
		if in.ID == "" {
			return nil, rpc.Required("id")
		}
		t, err := op(ctx, in.ID)
		if err != nil {
			return nil, rpc.Error(err)
		}
		return transferResponse(t)
	}
}

func (h *TransferHandler) ListTransfers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Status     string `json:"status"`
		LocationID string `json:"location_id"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	items, err := h.uc.ListTransfers(ctx, &dto.TransferFilters{
		Status:     model.TransferStatus(in.Status),
		LocationID: in.LocationID,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"transfers": items})
}

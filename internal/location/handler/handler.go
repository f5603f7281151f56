package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/location"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/rpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.inventory.v1.LocationService"

type LocationHandler struct {
	uc     location.UseCase
	logger logger.ZapLogger
}

func NewLocationHandler(uc location.UseCase, log logger.ZapLogger) *LocationHandler {
	return &LocationHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *LocationHandler) ServiceName() string { return ServiceName }

func (h *LocationHandler) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"AddLocation":         h.AddLocation,
		"GetLocation":         h.GetLocation,
		"ListActiveLocations": h.ListActiveLocations,
		"SetActive":           h.SetActive,
	}
}

type addLocationRequest struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Kind                string `json:"kind"`
	Address             string `json:"address"`
	City                string `json:"city"`
	State               string `json:"state"`
	CountryCode         string `json:"country_code"`
	PostalCode          string `json:"postal_code"`
	IsActive            *bool  `json:"is_active"`
	FulfillmentPriority *int   `json:"fulfillment_priority"`
	CanShip             *bool  `json:"can_ship"`
	AllowsPickup        *bool  `json:"allows_pickup"`
}

// toModel starts from the kind's defaults so a request only names what differs.
func (r *addLocationRequest) toModel() *model.Location {
	var loc *model.Location
	if model.LocationKind(r.Kind) == model.LocationStore {
		loc = model.NewStore(r.ID, r.Name)
	} else {
		loc = model.NewWarehouse(r.ID, r.Name)
		if r.Kind != "" {
			loc.Kind = model.LocationKind(r.Kind)
		}
	}
	loc.Address = r.Address
	loc.City = r.City
	loc.State = r.State
	loc.CountryCode = r.CountryCode
	loc.PostalCode = r.PostalCode
	if r.IsActive != nil {
		loc.IsActive = *r.IsActive
	}
	if r.FulfillmentPriority != nil {
		loc.FulfillmentPriority = *r.FulfillmentPriority
	}
	if r.CanShip != nil {
		loc.CanShip = *r.CanShip
	}
	if r.AllowsPickup != nil {
		loc.AllowsPickup = *r.AllowsPickup
	}
	return loc
}

func (h *LocationHandler) AddLocation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in addLocationRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, rpc.Required("id")
	}
	loc := in.toModel()
	if err := h.uc.AddLocation(ctx, loc); err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"location": loc})
}

func (h *LocationHandler) GetLocation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, rpc.Required("id")
	}
	loc, err := h.uc.GetLocation(ctx, in.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"location": loc})
}

func (h *LocationHandler) ListActiveLocations(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := h.uc.GetActiveLocations(ctx)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"locations": items})
}

func (h *LocationHandler) SetActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, rpc.Required("id")
	}
	if err := h.uc.SetActive(ctx, in.ID, in.Active); err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"id": in.ID, "active": in.Active})
}

package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/feed"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/rpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.inventory.v1.SyncService"

type SyncHandler struct {
	uc     feed.UseCase
	logger logger.ZapLogger
}

func NewSyncHandler(uc feed.UseCase, log logger.ZapLogger) *SyncHandler {
	return &SyncHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SyncHandler) ServiceName() string { return ServiceName }

func (h *SyncHandler) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"RegisterSource":   h.RegisterSource,
		"GetSource":        h.GetSource,
		"ListSources":      h.ListSources,
		"ApplySyncChanges": h.ApplySyncChanges,
	}
}

func (h *SyncHandler) RegisterSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID                  string            `json:"id"`
		Name                string            `json:"name"`
		Kind                string            `json:"kind"`
		EndpointURL         string            `json:"endpoint_url"`
		SyncEnabled         bool              `json:"sync_enabled"`
		SyncIntervalSeconds int64             `json:"sync_interval_seconds"`
		LocationMap         map[string]string `json:"location_map"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, rpc.Required("id")
	}

	src := &model.ExternalSource{
		ID:           in.ID,
		Name:         in.Name,
		Kind:         model.SourceKind(in.Kind),
		EndpointURL:  in.EndpointURL,
		SyncEnabled:  in.SyncEnabled,
		SyncInterval: time.Duration(in.SyncIntervalSeconds) * time.Second,
		LocationMap:  in.LocationMap,
	}
	if err := h.uc.RegisterSource(ctx, src); err != nil {
		return nil, rpc.Error(err)
	}
	return sourceResponse(src)
}

// sourceResponse reports the interval in seconds, matching RegisterSource.
func sourceResponse(src *model.ExternalSource) (*structpb.Struct, error) {
	return rpc.Encode(map[string]any{
		"source":                src,
		"sync_interval_seconds": int64(src.SyncInterval / time.Second),
	})
}

func (h *SyncHandler) GetSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, rpc.Required("id")
	}
	src, err := h.uc.GetSource(ctx, in.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return sourceResponse(src)
}

func (h *SyncHandler) ListSources(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := h.uc.ListSources(ctx)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"sources": items})
}

func (h *SyncHandler) ApplySyncChanges(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		SourceID string                  `json:"source_id"`
		Changes  []model.InventoryChange `json:"changes"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.SourceID == "" {
		return nil, rpc.Required("source_id")
	}
	result, err := h.uc.ApplySyncChanges(ctx, in.SourceID, in.Changes)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"result": result})
}

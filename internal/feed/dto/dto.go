package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

const (
	EventSyncRequested = "SyncRequested"
	EventSyncCompleted = "SyncCompleted"
)

// SyncBatch is one message on the sync topic: a batch of changes reported by
// a single source.
type SyncBatch struct {
	SourceID string                  `json:"source_id"`
	Changes  []model.InventoryChange `json:"changes"`
}

// SyncEvent is published after a batch is applied and when a source falls due.
type SyncEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	SourceID  string            `json:"source_id"`
	Result    *model.SyncResult `json:"result,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

package model

import "time"

type SourceKind string

const (
	SourceERP         SourceKind = "erp"
	SourceWMS         SourceKind = "wms"
	SourcePOS         SourceKind = "pos"
	SourceMarketplace SourceKind = "marketplace"
	SourceSupplier    SourceKind = "supplier"
	SourceManual      SourceKind = "manual"
)

type SyncStatus string

const (
	SyncSuccess    SyncStatus = "success"
	SyncFailed     SyncStatus = "failed"
	SyncInProgress SyncStatus = "in_progress"
	SyncPartial    SyncStatus = "partial"
)

// ExternalSource is a system of record whose changes are applied through the
// reconciler. LocationMap translates its location ids to ours; ids missing
// from the map are used as-is.
type ExternalSource struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Kind           SourceKind        `json:"kind"`
	EndpointURL    string            `json:"endpoint_url,omitempty"`
	SyncEnabled    bool              `json:"sync_enabled"`
	SyncInterval   time.Duration     `json:"sync_interval"`
	LocationMap    map[string]string `json:"location_map,omitempty"`
	LastSyncAt     *time.Time        `json:"last_sync_at,omitempty"`
	LastSyncStatus *SyncStatus       `json:"last_sync_status,omitempty"`
}

func (s *ExternalSource) Clone() *ExternalSource {
	c := *s
	if s.LocationMap != nil {
		c.LocationMap = make(map[string]string, len(s.LocationMap))
		for k, v := range s.LocationMap {
			c.LocationMap[k] = v
		}
	}
	return &c
}

func (s *ExternalSource) MapLocation(external string) string {
	if internal, ok := s.LocationMap[external]; ok {
		return internal
	}
	return external
}

// Due reports whether the source should be synced at now.
func (s *ExternalSource) Due(now time.Time) bool {
	if !s.SyncEnabled {
		return false
	}
	if s.LastSyncAt == nil {
		return true
	}
	return !now.Before(s.LastSyncAt.Add(s.SyncInterval))
}

type ChangeType string

const (
	ChangeSet       ChangeType = "set"
	ChangeIncrement ChangeType = "increment"
	ChangeDecrement ChangeType = "decrement"
)

type InventoryChange struct {
	ProductID       string     `json:"product_id"`
	SKU             string     `json:"sku,omitempty"`
	LocationID      string     `json:"location_id"`
	Quantity        int64      `json:"quantity"`
	ChangeType      ChangeType `json:"change_type"`
	SourceTimestamp *time.Time `json:"source_timestamp,omitempty"`
}

type SyncResult struct {
	SourceID       string        `json:"source_id"`
	Status         SyncStatus    `json:"status"`
	ItemsProcessed int           `json:"items_processed"`
	ItemsUpdated   int           `json:"items_updated"`
	ItemsFailed    int           `json:"items_failed"`
	Errors         []string      `json:"errors"`
	SyncedAt       time.Time     `json:"synced_at"`
	Duration       time.Duration `json:"duration"`
}

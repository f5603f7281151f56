package model

import (
	"fmt"
	"time"
)

const (
	DefaultLowStockThreshold = 10
	DefaultReorderPoint      = 20
	DefaultReorderQuantity   = 50
	DefaultSafetyStock       = 5
)

// InventoryKey identifies one ledger row. An empty VariantID means the product
// has no variant at this location.
type InventoryKey struct {
	ProductID  string
	VariantID  string
	LocationID string
}

func (k InventoryKey) String() string {
	if k.VariantID == "" {
		return k.ProductID + "|" + k.LocationID
	}
	return k.ProductID + ":" + k.VariantID + "|" + k.LocationID
}

type InventoryLevel struct {
	ProductID         string     `db:"product_id" json:"product_id"`
	VariantID         string     `db:"variant_id" json:"variant_id,omitempty"`
	LocationID        string     `db:"location_id" json:"location_id"`
	OnHand            int64      `db:"on_hand" json:"on_hand"`
	Committed         int64      `db:"committed" json:"committed"`
	Available         int64      `db:"available" json:"available"`
	Incoming          int64      `db:"incoming" json:"incoming"`
	Damaged           int64      `db:"damaged" json:"damaged"`
	LowStockThreshold int64      `db:"low_stock_threshold" json:"low_stock_threshold"`
	ReorderPoint      int64      `db:"reorder_point" json:"reorder_point"`
	ReorderQuantity   int64      `db:"reorder_quantity" json:"reorder_quantity"`
	SafetyStock       int64      `db:"safety_stock" json:"safety_stock"`
	LastCountedAt     *time.Time `db:"last_counted_at" json:"last_counted_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// NewInventoryLevel returns a zeroed row with the default thresholds.
func NewInventoryLevel(key InventoryKey, now time.Time) *InventoryLevel {
	return &InventoryLevel{
		ProductID:         key.ProductID,
		VariantID:         key.VariantID,
		LocationID:        key.LocationID,
		LowStockThreshold: DefaultLowStockThreshold,
		ReorderPoint:      DefaultReorderPoint,
		ReorderQuantity:   DefaultReorderQuantity,
		SafetyStock:       DefaultSafetyStock,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (l *InventoryLevel) Key() InventoryKey {
	return InventoryKey{ProductID: l.ProductID, VariantID: l.VariantID, LocationID: l.LocationID}
}

// RecalculateAvailable is the only writer of Available.
func (l *InventoryLevel) RecalculateAvailable(now time.Time) {
	l.Available = l.OnHand - l.Committed - l.Damaged
	l.UpdatedAt = now
}

func (l *InventoryLevel) IsLowStock() bool {
	return l.Available > 0 && l.Available <= l.LowStockThreshold
}

func (l *InventoryLevel) IsOutOfStock() bool {
	return l.Available <= 0
}

func (l *InventoryLevel) NeedsReorder() bool {
	return l.Available <= l.ReorderPoint
}

func (l *InventoryLevel) String() string {
	return fmt.Sprintf("InventoryLevel{product: %s, location: %s, available: %d, on_hand: %d, committed: %d}",
		l.ProductID, l.LocationID, l.Available, l.OnHand, l.Committed)
}

type AdjustmentType string

const (
	AdjustmentReceived   AdjustmentType = "received"
	AdjustmentShipped    AdjustmentType = "shipped"
	AdjustmentReturned   AdjustmentType = "returned"
	AdjustmentAdjustment AdjustmentType = "adjustment"
	AdjustmentTransfer   AdjustmentType = "transfer"
	AdjustmentReserved   AdjustmentType = "reserved"
	AdjustmentUnreserved AdjustmentType = "unreserved"
	AdjustmentDamaged    AdjustmentType = "damaged"
	AdjustmentScrapped   AdjustmentType = "scrapped"
	AdjustmentCycleCount AdjustmentType = "cycle_count"
)

// InventoryAdjustment is one immutable audit entry. NewQuantity always equals
// PreviousQuantity + Quantity for the tracked figure (on_hand, or committed for
// reserve/release and damaged for damage reports).
type InventoryAdjustment struct {
	ID               string         `db:"id" json:"id"`
	Seq              int64          `db:"seq" json:"seq"`
	ProductID        string         `db:"product_id" json:"product_id"`
	VariantID        string         `db:"variant_id" json:"variant_id,omitempty"`
	LocationID       string         `db:"location_id" json:"location_id"`
	Type             AdjustmentType `db:"adjustment_type" json:"adjustment_type"`
	Quantity         int64          `db:"quantity" json:"quantity"`
	PreviousQuantity int64          `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int64          `db:"new_quantity" json:"new_quantity"`
	Reference        *string        `db:"reference" json:"reference,omitempty"`
	Reason           string         `db:"reason" json:"reason"`
	CreatedBy        *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

package model

import (
	"fmt"
	"time"
)

type TransferStatus string

const (
	TransferPending    TransferStatus = "pending"
	TransferInProgress TransferStatus = "in_progress"
	TransferCompleted  TransferStatus = "completed"
	TransferCancelled  TransferStatus = "cancelled"
)

// Open reports whether the transfer can still be started, completed or cancelled.
func (s TransferStatus) Open() bool {
	return s == TransferPending || s == TransferInProgress
}

// TransferItem carries the progress of a transfer line. Reserved,
// QuantityShipped and QuantityReceived are saved after each side runs; when
// that save is lost, the adjustment log tells a resumed transfer which sides
// already happened.
type TransferItem struct {
	ProductID        string `json:"product_id"`
	VariantID        string `json:"variant_id,omitempty"`
	Quantity         int64  `json:"quantity"`
	Reserved         bool   `json:"reserved"`
	QuantityShipped  int64  `json:"quantity_shipped"`
	QuantityReceived int64  `json:"quantity_received"`
}

type StockTransfer struct {
	ID              string         `db:"id" json:"id"`
	FromLocationID  string         `db:"from_location_id" json:"from_location_id"`
	ToLocationID    string         `db:"to_location_id" json:"to_location_id"`
	Status          TransferStatus `db:"status" json:"status"`
	Items           []TransferItem `db:"-" json:"items"`
	ExpectedArrival *time.Time     `db:"expected_arrival" json:"expected_arrival,omitempty"`
	ArrivedAt       *time.Time     `db:"arrived_at" json:"arrived_at,omitempty"`
	Notes           *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so stored transfers are never aliased by callers.
func (t *StockTransfer) Clone() *StockTransfer {
	c := *t
	c.Items = append([]TransferItem(nil), t.Items...)
	return &c
}

func (t *StockTransfer) String() string {
	return fmt.Sprintf("StockTransfer{id: %s, from: %s, to: %s, status: %s, items: %d}",
		t.ID, t.FromLocationID, t.ToLocationID, t.Status, len(t.Items))
}

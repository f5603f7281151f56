package dto

// StockInput drives reserve, release, commit, receive, return, damage and scrap.
type StockInput struct {
	ProductID  string
	VariantID  string
	LocationID string
	Quantity   int64
	Reference  string // order id, PO number, transfer id
	Reason     string // overrides the default reason of the operation
	UserID     string
}

// SetInventoryInput sets on_hand to an absolute value.
type SetInventoryInput struct {
	ProductID  string
	VariantID  string
	LocationID string
	OnHand     int64
	Reason     string
	Reference  string
	UserID     string
}

type ThresholdsInput struct {
	ProductID         string
	VariantID         string
	LocationID        string
	LowStockThreshold *int64
	ReorderPoint      *int64
	ReorderQuantity   *int64
	SafetyStock       *int64
	Incoming          *int64
}

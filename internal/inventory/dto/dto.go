package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type LevelFilters struct {
	ProductID  string
	LocationID string
	LowStock   bool // 0 < available <= low_stock_threshold
	OutOfStock bool // available <= 0
	Reorder    bool // available <= reorder_point
}

// AdjustmentFilters selects audit entries. Results are newest first; Limit <= 0
// returns everything.
type AdjustmentFilters struct {
	ProductID  string
	LocationID string
	Type       model.AdjustmentType
	Reference  string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}

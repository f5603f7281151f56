package model

import (
	"testing"
	"time"
)

func TestInventoryLevelStatus(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name                          string
		onHand, committed, damaged    int64
		wantAvailable                 int64
		wantLow, wantOut, wantReorder bool
	}{
		{"healthy", 100, 0, 0, 100, false, false, false},
		{"at reorder point", 30, 5, 5, 20, false, false, true},
		{"low stock", 12, 2, 0, 10, true, false, true},
		{"out of stock", 5, 5, 0, 0, false, true, true},
		{"damaged counts against available", 10, 0, 10, 0, false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewInventoryLevel(InventoryKey{ProductID: "p", LocationID: "l"}, now)
			l.OnHand, l.Committed, l.Damaged = tt.onHand, tt.committed, tt.damaged
			l.RecalculateAvailable(now)

			if l.Available != tt.wantAvailable {
				t.Errorf("available = %d, want %d", l.Available, tt.wantAvailable)
			}
			if l.IsLowStock() != tt.wantLow {
				t.Errorf("IsLowStock = %v, want %v", l.IsLowStock(), tt.wantLow)
			}
			if l.IsOutOfStock() != tt.wantOut {
				t.Errorf("IsOutOfStock = %v, want %v", l.IsOutOfStock(), tt.wantOut)
			}
			if l.NeedsReorder() != tt.wantReorder {
				t.Errorf("NeedsReorder = %v, want %v", l.NeedsReorder(), tt.wantReorder)
			}
		})
	}
}

func TestInventoryKeyString(t *testing.T) {
	plain := InventoryKey{ProductID: "p1", LocationID: "w"}
	variant := InventoryKey{ProductID: "p1", VariantID: "red", LocationID: "w"}
	if plain.String() == variant.String() {
		t.Errorf("variant and plain keys collide: %s", plain)
	}
}

func TestExternalSourceDue(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-30 * time.Minute)
	src := &ExternalSource{ID: "erp", SyncEnabled: true, SyncInterval: time.Hour}

	if !src.Due(now) {
		t.Error("never-synced source should be due")
	}
	src.LastSyncAt = &earlier
	if src.Due(now) {
		t.Error("source synced 30m ago with 1h interval should not be due")
	}
	if !src.Due(now.Add(30 * time.Minute)) {
		t.Error("source should be due once the interval has elapsed")
	}
	src.SyncEnabled = false
	if src.Due(now.Add(time.Hour)) {
		t.Error("disabled source is never due")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	tr := &StockTransfer{ID: "t", Items: []TransferItem{{ProductID: "p", Quantity: 1}}}
	c := tr.Clone()
	c.Items[0].Quantity = 9
	if tr.Items[0].Quantity != 1 {
		t.Error("transfer clone shares items")
	}

	src := &ExternalSource{ID: "s", LocationMap: map[string]string{"A": "a"}}
	sc := src.Clone()
	sc.LocationMap["A"] = "b"
	if src.MapLocation("A") != "a" || src.MapLocation("Z") != "Z" {
		t.Error("source clone shares location map")
	}
}

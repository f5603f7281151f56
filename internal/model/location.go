package model

import "time"

const DefaultWarehouseID = "warehouse-main"

type LocationKind string

const (
	LocationWarehouse          LocationKind = "warehouse"
	LocationDistributionCenter LocationKind = "distribution_center"
	LocationStore              LocationKind = "store"
	LocationDropship           LocationKind = "dropship"
	LocationVirtual            LocationKind = "virtual"
)

type Location struct {
	ID                  string       `db:"id" json:"id"`
	Name                string       `db:"name" json:"name"`
	Kind                LocationKind `db:"kind" json:"kind"`
	Address             string       `db:"address" json:"address"`
	City                string       `db:"city" json:"city"`
	State               string       `db:"state" json:"state"`
	CountryCode         string       `db:"country_code" json:"country_code"`
	PostalCode          string       `db:"postal_code" json:"postal_code"`
	IsActive            bool         `db:"is_active" json:"is_active"`
	FulfillmentPriority int          `db:"fulfillment_priority" json:"fulfillment_priority"` // lower is preferred
	CanShip             bool         `db:"can_ship" json:"can_ship"`
	AllowsPickup        bool         `db:"allows_pickup" json:"allows_pickup"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
}

func NewWarehouse(id, name string) *Location {
	return &Location{
		ID:                  id,
		Name:                name,
		Kind:                LocationWarehouse,
		IsActive:            true,
		FulfillmentPriority: 1,
		CanShip:             true,
	}
}

func NewStore(id, name string) *Location {
	return &Location{
		ID:                  id,
		Name:                name,
		Kind:                LocationStore,
		IsActive:            true,
		FulfillmentPriority: 10,
		CanShip:             true,
		AllowsPickup:        true,
	}
}

// Package ledgererr holds the error kinds shared by every ledger component.
package ledgererr

import (
	"errors"
	"fmt"
)

var (
	ErrLock                  = errors.New("failed to acquire lock")
	ErrLocationNotFound      = errors.New("location not found")
	ErrLocationAlreadyExists = errors.New("location already exists")
	ErrInventoryNotFound     = errors.New("inventory record not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrTransferNotFound      = errors.New("transfer not found")
	ErrInvalidTransferStatus = errors.New("invalid transfer status")
	ErrInvalidTransfer       = errors.New("invalid transfer")
	ErrSourceNotFound        = errors.New("inventory source not found")
	ErrSourceDisabled        = errors.New("inventory source disabled")
	ErrProductNotFound       = errors.New("product not found")
	ErrInvalidChange         = errors.New("invalid inventory change")
)

// InsufficientInventoryError is returned by reservations that ask for more than
// is available. It matches ErrInsufficientInventory under errors.Is.
type InsufficientInventoryError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// Package catalog is the ledger's view of the product catalog: it only answers
// whether a product exists and which product a SKU belongs to.
package catalog

import "context"

type ProductChecker interface {
	// ProductExists reports whether productID is an active product.
	ProductExists(ctx context.Context, productID string) (bool, error)
	// FindIDBySKU fails with ledgererr.ErrProductNotFound for an unknown SKU.
	FindIDBySKU(ctx context.Context, sku string) (string, error)
}

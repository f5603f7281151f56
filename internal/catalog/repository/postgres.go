package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/jmoiron/sqlx"
)

// PGRepository reads the products table owned by the product service.
type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active = TRUE)`
	if err := r.DB.GetContext(ctx, &exists, query, productID); err != nil {
		return false, fmt.Errorf("failed to check product: %w", err)
	}
	return exists, nil
}

func (r *PGRepository) FindIDBySKU(ctx context.Context, sku string) (string, error) {
	var id string
	query := `SELECT id FROM products WHERE sku = $1 AND is_active = TRUE LIMIT 1`
	if err := r.DB.GetContext(ctx, &id, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: sku %s", ledgererr.ErrProductNotFound, sku)
		}
		return "", err
	}
	return id, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const levelKeyClause = `product_id = $1 AND variant_id = $2 AND location_id = $3`

func (r *PGRepository) GetLevel(ctx context.Context, key model.InventoryKey) (*model.InventoryLevel, error) {
	var level model.InventoryLevel
	err := r.DB.GetContext(ctx, &level, `SELECT * FROM inventory_levels WHERE `+levelKeyClause,
		key.ProductID, key.VariantID, key.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ledgererr.ErrInventoryNotFound, key)
		}
		return nil, err
	}
	return &level, nil
}

func (r *PGRepository) ListLevels(ctx context.Context, f *dto.LevelFilters) ([]model.InventoryLevel, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f != nil {
		if f.ProductID != "" {
			conditions = append(conditions, "product_id = :product_id")
			args["product_id"] = f.ProductID
		}
		if f.LocationID != "" {
			conditions = append(conditions, "location_id = :location_id")
			args["location_id"] = f.LocationID
		}
		if f.LowStock {
			conditions = append(conditions, "available > 0 AND available <= low_stock_threshold")
		}
		if f.OutOfStock {
			conditions = append(conditions, "available <= 0")
		}
		if f.Reorder {
			conditions = append(conditions, "available <= reorder_point")
		}
	}

	query := "SELECT * FROM inventory_levels"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY product_id, variant_id, location_id"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	items := []model.InventoryLevel{}
	err = nstmt.SelectContext(ctx, &items, args)
	return items, err
}

// Mutate locks the row with SELECT ... FOR UPDATE and writes the level and its
// adjustment in the same transaction.
func (r *PGRepository) Mutate(ctx context.Context, key model.InventoryKey, create bool, fn inventory.Mutation) (*model.InventoryLevel, *model.InventoryAdjustment, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if create {
		insertQuery := `
            INSERT INTO inventory_levels (
                product_id, variant_id, location_id,
                on_hand, committed, available, incoming, damaged,
                low_stock_threshold, reorder_point, reorder_quantity, safety_stock,
                last_counted_at, created_at, updated_at
            )
            VALUES (
                :product_id, :variant_id, :location_id,
                :on_hand, :committed, :available, :incoming, :damaged,
                :low_stock_threshold, :reorder_point, :reorder_quantity, :safety_stock,
                :last_counted_at, :created_at, :updated_at
            )
            ON CONFLICT (product_id, variant_id, location_id) DO NOTHING
        `
		if _, err := tx.NamedExecContext(ctx, insertQuery, model.NewInventoryLevel(key, time.Now())); err != nil {
			return nil, nil, fmt.Errorf("failed to create inventory level: %w", err)
		}
	}

	var level model.InventoryLevel
	err = tx.GetContext(ctx, &level, `SELECT * FROM inventory_levels WHERE `+levelKeyClause+` FOR UPDATE`,
		key.ProductID, key.VariantID, key.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ledgererr.ErrInventoryNotFound, key)
		}
		return nil, nil, err
	}

	adj, err := fn(&level)
	if err != nil {
		return nil, nil, err
	}

	updateQuery := `
        UPDATE inventory_levels SET
            on_hand = :on_hand,
            committed = :committed,
            available = :available,
            incoming = :incoming,
            damaged = :damaged,
            low_stock_threshold = :low_stock_threshold,
            reorder_point = :reorder_point,
            reorder_quantity = :reorder_quantity,
            safety_stock = :safety_stock,
            last_counted_at = :last_counted_at,
            updated_at = :updated_at
        WHERE product_id = :product_id AND variant_id = :variant_id AND location_id = :location_id
    `
	if _, err := tx.NamedExecContext(ctx, updateQuery, &level); err != nil {
		return nil, nil, fmt.Errorf("failed to update inventory level: %w", err)
	}

	if adj != nil {
		insertLogQuery := `
            INSERT INTO inventory_adjustments (
                id, product_id, variant_id, location_id,
                adjustment_type, quantity, previous_quantity, new_quantity,
                reference, reason, created_by, created_at
            )
            VALUES (
                :id, :product_id, :variant_id, :location_id,
                :adjustment_type, :quantity, :previous_quantity, :new_quantity,
                :reference, :reason, :created_by, :created_at
            )
            RETURNING seq
        `
		rows, err := sqlx.NamedQueryContext(ctx, tx, insertLogQuery, adj)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to log adjustment: %w", err)
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, nil, fmt.Errorf("failed to log adjustment: %w", err)
			}
			return nil, nil, errors.New("failed to log adjustment: no sequence returned")
		}
		if err := rows.Scan(&adj.Seq); err != nil {
			return nil, nil, err
		}
		// Drain the result so a late error surfaces before commit.
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to log adjustment: %w", err)
		}
		rows.Close()
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &level, adj, nil
}

func (r *PGRepository) ListAdjustments(ctx context.Context, f *dto.AdjustmentFilters) ([]model.InventoryAdjustment, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f == nil {
		f = &dto.AdjustmentFilters{}
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.Type != "" {
		conditions = append(conditions, "adjustment_type = :adjustment_type")
		args["adjustment_type"] = string(f.Type)
	}
	if f.Reference != "" {
		conditions = append(conditions, "reference = :reference")
		args["reference"] = f.Reference
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	query := "SELECT * FROM inventory_adjustments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	items := []model.InventoryAdjustment{}
	err = nstmt.SelectContext(ctx, &items, args)
	return items, err
}

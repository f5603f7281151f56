package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/transfer/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// transferRow is the stored shape; items live in a JSONB column.
type transferRow struct {
	model.StockTransfer
	ItemsJSON []byte `db:"items"`
}

func toRow(t *model.StockTransfer) (*transferRow, error) {
	items := t.Items
	if items == nil {
		items = []model.TransferItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return &transferRow{StockTransfer: *t, ItemsJSON: b}, nil
}

func (row *transferRow) toModel() (*model.StockTransfer, error) {
	t := row.StockTransfer
	if err := json.Unmarshal(row.ItemsJSON, &t.Items); err != nil {
		return nil, fmt.Errorf("failed to decode transfer items: %w", err)
	}
	return &t, nil
}

func (r *PGRepository) Create(ctx context.Context, t *model.StockTransfer) error {
	row, err := toRow(t)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO stock_transfers (
            id, from_location_id, to_location_id, status, items,
            expected_arrival, arrived_at, notes, created_at, updated_at
        )
        VALUES (
            :id, :from_location_id, :to_location_id, :status, :items,
            :expected_arrival, :arrived_at, :notes, :created_at, :updated_at
        )
    `
	if _, err := r.DB.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.StockTransfer, error) {
	var row transferRow
	err := r.DB.GetContext(ctx, &row, `SELECT * FROM stock_transfers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ledgererr.ErrTransferNotFound, id)
		}
		return nil, err
	}
	return row.toModel()
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.StockTransfer, error) {
	query := `SELECT * FROM stock_transfers WHERE 1=1`
	args := map[string]interface{}{}
	if f != nil {
		if f.Status != "" {
			query += ` AND status = :status`
			args["status"] = f.Status
		}
		if f.LocationID != "" {
			query += ` AND (from_location_id = :location_id OR to_location_id = :location_id)`
			args["location_id"] = f.LocationID
		}
	}
	query += ` ORDER BY created_at, id`

	stmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var rows []transferRow
	if err := stmt.SelectContext(ctx, &rows, args); err != nil {
		return nil, err
	}

	items := make([]model.StockTransfer, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, nil
}

func (r *PGRepository) Update(ctx context.Context, t *model.StockTransfer) error {
	t.UpdatedAt = time.Now()
	row, err := toRow(t)
	if err != nil {
		return err
	}
	query := `
        UPDATE stock_transfers
        SET status = :status, items = :items, arrived_at = :arrived_at,
            notes = :notes, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ledgererr.ErrTransferNotFound, t.ID)
	}
	return nil
}

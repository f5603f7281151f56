package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PGRepository) Create(ctx context.Context, loc *model.Location) error {
	query := `
        INSERT INTO locations (
            id, name, kind, address, city, state, country_code, postal_code,
            is_active, fulfillment_priority, can_ship, allows_pickup, created_at
        )
        VALUES (
            :id, :name, :kind, :address, :city, :state, :country_code, :postal_code,
            :is_active, :fulfillment_priority, :can_ship, :allows_pickup, :created_at
        )
        ON CONFLICT (id) DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, loc)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ledgererr.ErrLocationAlreadyExists, loc.ID)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.DB.GetContext(ctx, &loc, `SELECT * FROM locations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ledgererr.ErrLocationNotFound, id)
		}
		return nil, err
	}
	return &loc, nil
}

func (r *PGRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Location, error) {
	query := `SELECT * FROM locations`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY fulfillment_priority, id`

	var items []model.Location
	if err := r.DB.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE locations SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ledgererr.ErrLocationNotFound, id)
	}
	return nil
}

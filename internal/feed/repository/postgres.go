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
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type sourceRow struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Kind                string     `db:"kind"`
	EndpointURL         string     `db:"endpoint_url"`
	SyncEnabled         bool       `db:"sync_enabled"`
	SyncIntervalSeconds int64      `db:"sync_interval_seconds"`
	LocationMap         []byte     `db:"location_map"`
	LastSyncAt          *time.Time `db:"last_sync_at"`
	LastSyncStatus      *string    `db:"last_sync_status"`
}

func toRow(src *model.ExternalSource) (*sourceRow, error) {
	locationMap := src.LocationMap
	if locationMap == nil {
		locationMap = map[string]string{}
	}
	b, err := json.Marshal(locationMap)
	if err != nil {
		return nil, err
	}
	return &sourceRow{
		ID:                  src.ID,
		Name:                src.Name,
		Kind:                string(src.Kind),
		EndpointURL:         src.EndpointURL,
		SyncEnabled:         src.SyncEnabled,
		SyncIntervalSeconds: int64(src.SyncInterval / time.Second),
		LocationMap:         b,
	}, nil
}

func (row *sourceRow) toModel() (*model.ExternalSource, error) {
	src := &model.ExternalSource{
		ID:           row.ID,
		Name:         row.Name,
		Kind:         model.SourceKind(row.Kind),
		EndpointURL:  row.EndpointURL,
		SyncEnabled:  row.SyncEnabled,
		SyncInterval: time.Duration(row.SyncIntervalSeconds) * time.Second,
		LastSyncAt:   row.LastSyncAt,
	}
	if row.LastSyncStatus != nil {
		status := model.SyncStatus(*row.LastSyncStatus)
		src.LastSyncStatus = &status
	}
	if err := json.Unmarshal(row.LocationMap, &src.LocationMap); err != nil {
		return nil, fmt.Errorf("failed to decode location map: %w", err)
	}
	return src, nil
}

func (r *PGRepository) Upsert(ctx context.Context, src *model.ExternalSource) error {
	row, err := toRow(src)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO inventory_sources (
            id, name, kind, endpoint_url, sync_enabled, sync_interval_seconds, location_map
        )
        VALUES (
            :id, :name, :kind, :endpoint_url, :sync_enabled, :sync_interval_seconds, :location_map
        )
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            kind = EXCLUDED.kind,
            endpoint_url = EXCLUDED.endpoint_url,
            sync_enabled = EXCLUDED.sync_enabled,
            sync_interval_seconds = EXCLUDED.sync_interval_seconds,
            location_map = EXCLUDED.location_map
    `
	if _, err := r.DB.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to upsert inventory source: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.ExternalSource, error) {
	var row sourceRow
	err := r.DB.GetContext(ctx, &row, `SELECT * FROM inventory_sources WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ledgererr.ErrSourceNotFound, id)
		}
		return nil, err
	}
	return row.toModel()
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.ExternalSource, error) {
	var rows []sourceRow
	if err := r.DB.SelectContext(ctx, &rows, `SELECT * FROM inventory_sources ORDER BY id`); err != nil {
		return nil, err
	}
	items := make([]model.ExternalSource, 0, len(rows))
	for i := range rows {
		src, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, *src)
	}
	return items, nil
}

func (r *PGRepository) UpdateSyncState(ctx context.Context, id string, at time.Time, status model.SyncStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_sources SET last_sync_at = $1, last_sync_status = $2 WHERE id = $3`,
		at, string(status), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ledgererr.ErrSourceNotFound, id)
	}
	return nil
}

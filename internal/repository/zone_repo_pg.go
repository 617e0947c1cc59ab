package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type ZoneRepository interface {
	Create(ctx context.Context, zone *domain.RestrictedZone) error
	GetByID(ctx context.Context, id int64) (*domain.RestrictedZone, error)
	ListActive(ctx context.Context) ([]domain.RestrictedZone, error)
	Update(ctx context.Context, id int64, radius, maxAltitude float64) (*domain.RestrictedZone, error)
	Delete(ctx context.Context, id int64) error
}

type PGZoneRepository struct {
	db *pgxpool.Pool
}

func NewZoneRepository(db *pgxpool.Pool) ZoneRepository {
	return &PGZoneRepository{db: db}
}

const zoneColumns = `id, name, description, center_lat, center_lng, radius, max_altitude, is_active, created_at`

func (r *PGZoneRepository) Create(ctx context.Context, zone *domain.RestrictedZone) error {
	return r.db.QueryRow(ctx, `INSERT INTO restricted_zones (name, description, center_lat, center_lng, radius, max_altitude, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, is_active, created_at`,
		zone.Name, zone.Description, zone.CenterLat, zone.CenterLng, zone.Radius, zone.MaxAltitude).
		Scan(&zone.ID, &zone.IsActive, &zone.CreatedAt)
}

func (r *PGZoneRepository) GetByID(ctx context.Context, id int64) (*domain.RestrictedZone, error) {
	row := r.db.QueryRow(ctx, `SELECT `+zoneColumns+` FROM restricted_zones WHERE id=$1`, id)
	zone, err := scanZone(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return zone, err
}

func (r *PGZoneRepository) ListActive(ctx context.Context) ([]domain.RestrictedZone, error) {
	rows, err := r.db.Query(ctx, `SELECT `+zoneColumns+` FROM restricted_zones WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	zones := make([]domain.RestrictedZone, 0)
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *zone)
	}
	return zones, rows.Err()
}

func (r *PGZoneRepository) Update(ctx context.Context, id int64, radius, maxAltitude float64) (*domain.RestrictedZone, error) {
	row := r.db.QueryRow(ctx, `UPDATE restricted_zones SET radius=$1, max_altitude=$2 WHERE id=$3
		RETURNING `+zoneColumns, radius, maxAltitude, id)
	zone, err := scanZone(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return zone, err
}

func (r *PGZoneRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM restricted_zones WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanZone(row pgx.Row) (*domain.RestrictedZone, error) {
	var z domain.RestrictedZone
	if err := row.Scan(&z.ID, &z.Name, &z.Description, &z.CenterLat, &z.CenterLng, &z.Radius, &z.MaxAltitude, &z.IsActive, &z.CreatedAt); err != nil {
		return nil, err
	}
	return &z, nil
}

var _ ZoneRepository = (*PGZoneRepository)(nil)

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type DroneRepository interface {
	Create(ctx context.Context, drone *domain.Drone) error
	GetByID(ctx context.Context, id int64) (*domain.Drone, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Drone, error)
}

type PGDroneRepository struct {
	db *pgxpool.Pool
}

func NewDroneRepository(db *pgxpool.Pool) DroneRepository {
	return &PGDroneRepository{db: db}
}

const droneColumns = `id, brand, model, serial_number, max_altitude, max_speed, weight_kg, is_active, owner_id, created_at`

func (r *PGDroneRepository) Create(ctx context.Context, drone *domain.Drone) error {
	return r.db.QueryRow(ctx, `INSERT INTO drones (brand, model, serial_number, max_altitude, max_speed, weight_kg, is_active, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7)
		RETURNING id, is_active, created_at`,
		drone.Brand, drone.Model, drone.SerialNumber, drone.MaxAltitude, drone.MaxSpeed, drone.WeightKg, drone.OwnerID).
		Scan(&drone.ID, &drone.IsActive, &drone.CreatedAt)
}

func (r *PGDroneRepository) GetByID(ctx context.Context, id int64) (*domain.Drone, error) {
	row := r.db.QueryRow(ctx, `SELECT `+droneColumns+` FROM drones WHERE id=$1`, id)
	var d domain.Drone
	err := row.Scan(&d.ID, &d.Brand, &d.Model, &d.SerialNumber, &d.MaxAltitude, &d.MaxSpeed, &d.WeightKg, &d.IsActive, &d.OwnerID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PGDroneRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Drone, error) {
	rows, err := r.db.Query(ctx, `SELECT `+droneColumns+` FROM drones WHERE owner_id=$1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drones := make([]domain.Drone, 0)
	for rows.Next() {
		var d domain.Drone
		if err := rows.Scan(&d.ID, &d.Brand, &d.Model, &d.SerialNumber, &d.MaxAltitude, &d.MaxSpeed, &d.WeightKg, &d.IsActive, &d.OwnerID, &d.CreatedAt); err != nil {
			return nil, err
		}
		drones = append(drones, d)
	}
	return drones, rows.Err()
}

var _ DroneRepository = (*PGDroneRepository)(nil)

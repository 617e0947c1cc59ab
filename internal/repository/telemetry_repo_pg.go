package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type TelemetryRepository interface {
	Insert(ctx context.Context, report *domain.Telemetry) error
	ListByDrone(ctx context.Context, droneID int64, since time.Time) ([]domain.Telemetry, error)
	LatestPerDrone(ctx context.Context) ([]domain.Telemetry, error)
}

type PGTelemetryRepository struct {
	db *pgxpool.Pool
}

func NewTelemetryRepository(db *pgxpool.Pool) TelemetryRepository {
	return &PGTelemetryRepository{db: db}
}

const telemetryColumns = `id, drone_id, flight_request_id, latitude, longitude, altitude, speed, heading, battery_level, status, timestamp`

func (r *PGTelemetryRepository) Insert(ctx context.Context, report *domain.Telemetry) error {
	return r.db.QueryRow(ctx, `INSERT INTO telemetry (drone_id, flight_request_id, latitude, longitude, altitude, speed, heading, battery_level, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		report.DroneID, report.FlightRequestID, report.Latitude, report.Longitude, report.Altitude,
		report.Speed, report.Heading, report.BatteryLevel, report.Status, report.Timestamp).
		Scan(&report.ID)
}

func (r *PGTelemetryRepository) ListByDrone(ctx context.Context, droneID int64, since time.Time) ([]domain.Telemetry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+telemetryColumns+` FROM telemetry
		WHERE drone_id=$1 AND timestamp > $2 ORDER BY timestamp DESC`, droneID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTelemetry(rows)
}

// LatestPerDrone returns the most recent report for every drone that
// has reported at least once.
func (r *PGTelemetryRepository) LatestPerDrone(ctx context.Context) ([]domain.Telemetry, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT ON (drone_id) `+telemetryColumns+`
		FROM telemetry ORDER BY drone_id, timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTelemetry(rows)
}

func scanTelemetry(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Telemetry, error) {
	reports := make([]domain.Telemetry, 0)
	for rows.Next() {
		var t domain.Telemetry
		if err := rows.Scan(&t.ID, &t.DroneID, &t.FlightRequestID, &t.Latitude, &t.Longitude, &t.Altitude,
			&t.Speed, &t.Heading, &t.BatteryLevel, &t.Status, &t.Timestamp); err != nil {
			return nil, err
		}
		reports = append(reports, t)
	}
	return reports, rows.Err()
}

var _ TelemetryRepository = (*PGTelemetryRepository)(nil)

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	List(ctx context.Context, resolved bool, since time.Time) ([]domain.Alert, error)
	Resolve(ctx context.Context, id int64, resolvedBy int64, at time.Time) (*domain.Alert, error)
}

type PGAlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) AlertRepository {
	return &PGAlertRepository{db: db}
}

const alertColumns = `id, drone_id, flight_request_id, alert_type, severity, message, latitude, longitude, altitude, is_resolved, resolved_at, resolved_by, created_at`

func (r *PGAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	return r.db.QueryRow(ctx, `INSERT INTO alerts (drone_id, flight_request_id, alert_type, severity, message, latitude, longitude, altitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_resolved, created_at`,
		alert.DroneID, alert.FlightRequestID, alert.Type, alert.Severity, alert.Message,
		alert.Latitude, alert.Longitude, alert.Altitude).
		Scan(&alert.ID, &alert.IsResolved, &alert.CreatedAt)
}

func (r *PGAlertRepository) List(ctx context.Context, resolved bool, since time.Time) ([]domain.Alert, error) {
	rows, err := r.db.Query(ctx, `SELECT `+alertColumns+` FROM alerts
		WHERE is_resolved=$1 AND created_at > $2 ORDER BY created_at DESC`, resolved, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

func (r *PGAlertRepository) Resolve(ctx context.Context, id int64, resolvedBy int64, at time.Time) (*domain.Alert, error) {
	row := r.db.QueryRow(ctx, `UPDATE alerts SET is_resolved=true, resolved_by=$1, resolved_at=$2
		WHERE id=$3 RETURNING `+alertColumns, resolvedBy, at, id)
	alert, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return alert, err
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	if err := row.Scan(&a.ID, &a.DroneID, &a.FlightRequestID, &a.Type, &a.Severity, &a.Message,
		&a.Latitude, &a.Longitude, &a.Altitude, &a.IsResolved, &a.ResolvedAt, &a.ResolvedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

var _ AlertRepository = (*PGAlertRepository)(nil)

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type ReservationRepository interface {
	CreateBatch(ctx context.Context, reservations []domain.Reservation) error
	DeleteByFlight(ctx context.Context, flightRequestID int64) error
	ListActive(ctx context.Context, after time.Time) ([]domain.Reservation, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

// CreateBatch persists a flight's reservations in one transaction so a
// restart reloads either all of a claim or none of it.
func (r *PGReservationRepository) CreateBatch(ctx context.Context, reservations []domain.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range reservations {
		res := &reservations[i]
		if err := tx.QueryRow(ctx, `INSERT INTO airspace_reservations (flight_request_id, cell_id, altitude_band, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			res.FlightRequestID, res.CellID, res.AltitudeBand, res.StartTime, res.EndTime).
			Scan(&res.ID, &res.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteByFlight is idempotent: deleting a flight with no rows is not
// an error.
func (r *PGReservationRepository) DeleteByFlight(ctx context.Context, flightRequestID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM airspace_reservations WHERE flight_request_id=$1`, flightRequestID)
	return err
}

// ListActive returns reservations whose window has not ended, for
// seeding the in-memory ledger at startup.
func (r *PGReservationRepository) ListActive(ctx context.Context, after time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_request_id, cell_id, altitude_band, start_time, end_time, created_at
		FROM airspace_reservations WHERE end_time > $1 ORDER BY start_time`, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.FlightRequestID, &res.CellID, &res.AltitudeBand, &res.StartTime, &res.EndTime, &res.CreatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

var _ ReservationRepository = (*PGReservationRepository)(nil)

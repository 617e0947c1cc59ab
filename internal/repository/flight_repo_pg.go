package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type FlightRepository interface {
	Create(ctx context.Context, request *domain.FlightRequest) error
	GetByID(ctx context.Context, id int64) (*domain.FlightRequest, error)
	ListByPilot(ctx context.Context, pilotID int64) ([]domain.FlightRequest, error)
	ListAll(ctx context.Context) ([]domain.FlightRequest, error)
	ListActiveApproved(ctx context.Context, now time.Time) ([]domain.FlightRequest, error)
	ListOverdueInFlight(ctx context.Context, now time.Time) ([]domain.FlightRequest, error)
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus, approvedBy *int64, notes string, approvedAt *time.Time) (*domain.FlightRequest, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, token, drone_id, pilot_id, planned_start_time, planned_end_time, max_altitude, purpose, status, approval_notes, approved_by, approved_at, created_at`

// Create inserts the request and its waypoints in one transaction.
func (r *PGFlightRepository) Create(ctx context.Context, request *domain.FlightRequest) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	request.Status = domain.FlightStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO flight_requests (token, drone_id, pilot_id, planned_start_time, planned_end_time, max_altitude, purpose, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		request.Token, request.DroneID, request.PilotID, request.PlannedStartTime, request.PlannedEndTime,
		request.MaxAltitude, request.Purpose, request.Status).
		Scan(&request.ID, &request.CreatedAt); err != nil {
		return err
	}

	for i := range request.Waypoints {
		wp := &request.Waypoints[i]
		wp.FlightRequestID = request.ID
		if err := tx.QueryRow(ctx, `INSERT INTO waypoints (flight_request_id, sequence, latitude, longitude, altitude)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			wp.FlightRequestID, wp.Sequence, wp.Latitude, wp.Longitude, wp.Altitude).
			Scan(&wp.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.FlightRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flight_requests WHERE id=$1`, id)
	request, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachWaypoints(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (r *PGFlightRepository) ListByPilot(ctx context.Context, pilotID int64) ([]domain.FlightRequest, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flight_requests WHERE pilot_id=$1 ORDER BY created_at DESC`, pilotID)
}

func (r *PGFlightRepository) ListAll(ctx context.Context) ([]domain.FlightRequest, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flight_requests ORDER BY created_at DESC`)
}

// ListActiveApproved returns approved or airborne requests whose
// window has not ended. Used for zone mutation guards.
func (r *PGFlightRepository) ListActiveApproved(ctx context.Context, now time.Time) ([]domain.FlightRequest, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flight_requests
		WHERE status = ANY($1) AND planned_end_time > $2`,
		[]string{string(domain.FlightStatusApproved), string(domain.FlightStatusInFlight)}, now)
}

func (r *PGFlightRepository) ListOverdueInFlight(ctx context.Context, now time.Time) ([]domain.FlightRequest, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flight_requests
		WHERE status=$1 AND planned_end_time <= $2`,
		domain.FlightStatusInFlight, now)
}

func (r *PGFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus, approvedBy *int64, notes string, approvedAt *time.Time) (*domain.FlightRequest, error) {
	row := r.db.QueryRow(ctx, `UPDATE flight_requests
		SET status=$1,
		    approved_by=COALESCE($2, approved_by),
		    approval_notes=CASE WHEN $3 <> '' THEN $3 ELSE approval_notes END,
		    approved_at=COALESCE($4, approved_at)
		WHERE id=$5
		RETURNING `+flightColumns, status, approvedBy, notes, approvedAt, id)
	request, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachWaypoints(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (r *PGFlightRepository) list(ctx context.Context, query string, args ...any) ([]domain.FlightRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]domain.FlightRequest, 0)
	for rows.Next() {
		request, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range requests {
		if err := r.attachWaypoints(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (r *PGFlightRepository) attachWaypoints(ctx context.Context, request *domain.FlightRequest) error {
	rows, err := r.db.Query(ctx, `SELECT id, flight_request_id, sequence, latitude, longitude, altitude
		FROM waypoints WHERE flight_request_id=$1 ORDER BY sequence`, request.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	request.Waypoints = make([]domain.Waypoint, 0)
	for rows.Next() {
		var wp domain.Waypoint
		if err := rows.Scan(&wp.ID, &wp.FlightRequestID, &wp.Sequence, &wp.Latitude, &wp.Longitude, &wp.Altitude); err != nil {
			return err
		}
		request.Waypoints = append(request.Waypoints, wp)
	}
	return rows.Err()
}

func scanFlight(row pgx.Row) (*domain.FlightRequest, error) {
	var f domain.FlightRequest
	if err := row.Scan(&f.ID, &f.Token, &f.DroneID, &f.PilotID, &f.PlannedStartTime, &f.PlannedEndTime,
		&f.MaxAltitude, &f.Purpose, &f.Status, &f.ApprovalNotes, &f.ApprovedBy, &f.ApprovedAt, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)

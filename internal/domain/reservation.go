package domain

import "time"

// Reservation is a time-bounded claim on one airspace cell at one
// altitude band by an approved flight request. The full claim of a
// request is the set of reservations over every cell its route
// covers.
type Reservation struct {
	ID              int64     `json:"id"`
	FlightRequestID int64     `json:"flight_request_id"`
	CellID          string    `json:"cell_id"` // H3 index
	AltitudeBand    int       `json:"altitude_band"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	CreatedAt       time.Time `json:"created_at"`
}

// ConflictResult is the outcome of a conflict check for a candidate
// route. HasConflicts is true when anything was found: an intersected
// zone, a waypoint over reserved airspace, or a message-only
// altitude-ceiling violation.
type ConflictResult struct {
	HasConflicts bool             `json:"has_conflicts"`
	Messages     []string         `json:"messages,omitempty"`
	Waypoints    []Waypoint       `json:"conflicts"`
	Zones        []RestrictedZone `json:"restricted_zones"`
}

package domain

import "time"

type FlightStatus string

const (
	FlightStatusPending   FlightStatus = "PENDING"
	FlightStatusApproved  FlightStatus = "APPROVED"
	FlightStatusDeclined  FlightStatus = "DECLINED"
	FlightStatusInFlight  FlightStatus = "IN_FLIGHT"
	FlightStatusCompleted FlightStatus = "COMPLETED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

// Waypoint is a single 3D point of a flight path. Sequence is the
// position of the waypoint within its route and is strictly
// increasing.
type Waypoint struct {
	ID              int64   `json:"id,omitempty"`
	FlightRequestID int64   `json:"flight_request_id,omitempty"`
	Sequence        int     `json:"sequence"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Altitude        float64 `json:"altitude"`
}

// FlightRequest is a pilot's application to fly a route within a time
// window. Token is the public identifier used in events, the numeric
// ID stays internal to the API and database.
type FlightRequest struct {
	ID               int64        `json:"id"`
	Token            string       `json:"token"`
	DroneID          int64        `json:"drone_id"`
	PilotID          int64        `json:"pilot_id"`
	PlannedStartTime time.Time    `json:"planned_start_time"`
	PlannedEndTime   time.Time    `json:"planned_end_time"`
	MaxAltitude      float64      `json:"max_altitude"`
	Purpose          string       `json:"purpose,omitempty"`
	Status           FlightStatus `json:"status"`
	ApprovalNotes    string       `json:"approval_notes,omitempty"`
	ApprovedBy       *int64       `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time   `json:"approved_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	Waypoints        []Waypoint   `json:"waypoints,omitempty"`
}

// Window returns the half-open [start, end) interval of the request.
func (f *FlightRequest) Window() TimeWindow {
	return TimeWindow{Start: f.PlannedStartTime, End: f.PlannedEndTime}
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

func (w TimeWindow) IsValid() bool {
	return w.End.After(w.Start)
}

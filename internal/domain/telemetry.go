package domain

import "time"

type DroneFlightState string

const (
	DroneStateAirborne  DroneFlightState = "AIRBORNE"
	DroneStateLanded    DroneFlightState = "LANDED"
	DroneStateEmergency DroneFlightState = "EMERGENCY"
)

// Telemetry is a single position report from a drone. Only the latest
// report per drone is kept live; history is persisted for audit.
type Telemetry struct {
	ID              int64            `json:"id"`
	DroneID         int64            `json:"drone_id"`
	FlightRequestID *int64           `json:"flight_request_id,omitempty"`
	Latitude        float64          `json:"latitude"`
	Longitude       float64          `json:"longitude"`
	Altitude        float64          `json:"altitude"`
	Speed           float64          `json:"speed"`   // m/s
	Heading         float64          `json:"heading"` // degrees
	BatteryLevel    float64          `json:"battery_level"`
	Status          DroneFlightState `json:"status"`
	Timestamp       time.Time        `json:"timestamp"`
}

type AlertType string

const (
	AlertGeofenceViolation AlertType = "geofence_violation"
	AlertAltitudeViolation AlertType = "altitude_violation"
	AlertEmergency         AlertType = "emergency"
	AlertLowBattery        AlertType = "low_battery"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type Alert struct {
	ID              int64         `json:"id"`
	DroneID         int64         `json:"drone_id"`
	FlightRequestID *int64        `json:"flight_request_id,omitempty"`
	Type            AlertType     `json:"alert_type"`
	Severity        AlertSeverity `json:"severity"`
	Message         string        `json:"message"`
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	Altitude        float64       `json:"altitude"`
	IsResolved      bool          `json:"is_resolved"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy      *int64        `json:"resolved_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

package domain

import "time"

type Drone struct {
	ID           int64     `json:"id"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serial_number"`
	MaxAltitude  float64   `json:"max_altitude"` // meters
	MaxSpeed     float64   `json:"max_speed"`    // m/s
	WeightKg     float64   `json:"weight_kg"`
	IsActive     bool      `json:"is_active"`
	OwnerID      int64     `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

package domain

import "time"

// RestrictedZone is a circular no-fly region with an altitude ceiling.
// Center and radius define a closed disk: a point exactly on the
// boundary is inside the zone.
type RestrictedZone struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CenterLat   float64   `json:"center_lat"`
	CenterLng   float64   `json:"center_lng"`
	Radius      float64   `json:"radius"` // meters
	MaxAltitude float64   `json:"max_altitude"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

package zones

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/geo"
	"github.com/yerzhan-m/utm-airspace/internal/repository"
)

type ZoneUseCase interface {
	Create(ctx context.Context, input CreateZoneInput) (*domain.RestrictedZone, error)
	ActiveZones(ctx context.Context) ([]domain.RestrictedZone, error)
	Update(ctx context.Context, id int64, radius, maxAltitude float64) (*domain.RestrictedZone, error)
	Delete(ctx context.Context, id int64) error
}

type Cache interface {
	GetZones(ctx context.Context) ([]domain.RestrictedZone, error)
	SetZones(ctx context.Context, zones []domain.RestrictedZone) error
	InvalidateZones(ctx context.Context) error
}

type CreateZoneInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CenterLat   float64 `json:"center_lat"`
	CenterLng   float64 `json:"center_lng"`
	Radius      float64 `json:"radius"`
	MaxAltitude float64 `json:"max_altitude"`
}

type ZoneService struct {
	zones   repository.ZoneRepository
	flights repository.FlightRepository
	cache   Cache
}

func NewZoneService(zones repository.ZoneRepository, flights repository.FlightRepository, cache Cache) *ZoneService {
	return &ZoneService{zones: zones, flights: flights, cache: cache}
}

func (s *ZoneService) Create(ctx context.Context, input CreateZoneInput) (*domain.RestrictedZone, error) {
	if input.Name == "" {
		return nil, errors.New("zone name is required")
	}
	if input.Radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidGeometry)
	}
	center := geo.Point{Lat: input.CenterLat, Lng: input.CenterLng}
	if !center.Valid() {
		return nil, fmt.Errorf("%w: center out of range", domain.ErrInvalidGeometry)
	}

	zone := &domain.RestrictedZone{
		Name:        input.Name,
		Description: input.Description,
		CenterLat:   input.CenterLat,
		CenterLng:   input.CenterLng,
		Radius:      input.Radius,
		MaxAltitude: input.MaxAltitude,
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateZones(ctx)
	}
	return zone, nil
}

// ActiveZones serves conflict checks and the map; reads go through the
// cache when it is warm.
func (s *ZoneService) ActiveZones(ctx context.Context) ([]domain.RestrictedZone, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetZones(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	zones, err := s.zones.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetZones(ctx, zones)
	}
	return zones, nil
}

// Update changes a zone's radius and altitude ceiling. Refused while
// any approved or airborne flight's route would fall inside the new
// geometry.
func (s *ZoneService) Update(ctx context.Context, id int64, radius, maxAltitude float64) (*domain.RestrictedZone, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidGeometry)
	}

	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.guardActiveFlights(ctx, zone, radius); err != nil {
		return nil, err
	}

	updated, err := s.zones.Update(ctx, id, radius, maxAltitude)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateZones(ctx)
	}
	return updated, nil
}

// Delete removes a zone, refused while an approved or airborne flight
// still intersects it.
func (s *ZoneService) Delete(ctx context.Context, id int64) error {
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.guardActiveFlights(ctx, zone, zone.Radius); err != nil {
		return err
	}

	if err := s.zones.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateZones(ctx)
	}
	return nil
}

func (s *ZoneService) guardActiveFlights(ctx context.Context, zone *domain.RestrictedZone, radius float64) error {
	active, err := s.flights.ListActiveApproved(ctx, time.Now())
	if err != nil {
		return err
	}

	center := geo.Point{Lat: zone.CenterLat, Lng: zone.CenterLng}
	for _, flight := range active {
		path := make([]geo.Point, len(flight.Waypoints))
		for i, wp := range flight.Waypoints {
			path[i] = geo.Point{Lat: wp.Latitude, Lng: wp.Longitude}
		}
		if geo.PathIntersectsZone(path, center, radius) {
			return fmt.Errorf("zone %d intersects active flight request %d", zone.ID, flight.ID)
		}
	}
	return nil
}

var _ ZoneUseCase = (*ZoneService)(nil)

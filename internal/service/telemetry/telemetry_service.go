package telemetry

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/geo"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
	"github.com/yerzhan-m/utm-airspace/internal/kafka"
	"github.com/yerzhan-m/utm-airspace/internal/repository"
)

const lowBatteryThreshold = 20.0

type TelemetryUseCase interface {
	Ingest(ctx context.Context, input IngestInput) (*domain.Telemetry, error)
	History(ctx context.Context, droneID int64, since time.Time) ([]domain.Telemetry, error)
	LatestPositions(ctx context.Context) ([]domain.Telemetry, error)
	NearbyDrones(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.Telemetry, error)
	Alerts(ctx context.Context, resolved bool, since time.Time) ([]domain.Alert, error)
	ResolveAlert(ctx context.Context, id, adminID int64) (*domain.Alert, error)
}

type ZoneSource interface {
	ActiveZones(ctx context.Context) ([]domain.RestrictedZone, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type IngestInput struct {
	DroneID         int64   `json:"drone_id"`
	FlightRequestID *int64  `json:"flight_request_id"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Altitude        float64 `json:"altitude"`
	Speed           float64 `json:"speed"`
	Heading         float64 `json:"heading"`
	BatteryLevel    float64 `json:"battery_level"`
	Status          string  `json:"status"`
}

type TelemetryService struct {
	reports     repository.TelemetryRepository
	alerts      repository.AlertRepository
	zones       ZoneSource
	grid        *hexgrid.Grid
	producer    Producer
	alertsTopic string

	// Live position index: latest report per drone, bucketed by hex
	// cell for the nearby query. Latest-known-position semantics only;
	// history lives in the repository.
	mu       sync.RWMutex
	latest   map[int64]domain.Telemetry
	byCell   map[hexgrid.CellID]map[int64]struct{}
	cellByID map[int64]hexgrid.CellID
}

func NewTelemetryService(
	reports repository.TelemetryRepository,
	alerts repository.AlertRepository,
	zones ZoneSource,
	grid *hexgrid.Grid,
	producer Producer,
	alertsTopic string,
) *TelemetryService {
	return &TelemetryService{
		reports:     reports,
		alerts:      alerts,
		zones:       zones,
		grid:        grid,
		producer:    producer,
		alertsTopic: alertsTopic,
		latest:      make(map[int64]domain.Telemetry),
		byCell:      make(map[hexgrid.CellID]map[int64]struct{}),
		cellByID:    make(map[int64]hexgrid.CellID),
	}
}

// Ingest stores a position report, refreshes the live index and
// raises alerts for geofence, altitude, battery and emergency
// conditions. Alert failures never fail the ingest.
func (s *TelemetryService) Ingest(ctx context.Context, input IngestInput) (*domain.Telemetry, error) {
	p := geo.Point{Lat: input.Latitude, Lng: input.Longitude}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: position out of range", domain.ErrInvalidGeometry)
	}

	status := domain.DroneFlightState(input.Status)
	if status == "" {
		status = domain.DroneStateAirborne
	}

	report := &domain.Telemetry{
		DroneID:         input.DroneID,
		FlightRequestID: input.FlightRequestID,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		Altitude:        input.Altitude,
		Speed:           input.Speed,
		Heading:         input.Heading,
		BatteryLevel:    input.BatteryLevel,
		Status:          status,
		Timestamp:       time.Now(),
	}
	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, err
	}

	s.updateIndex(*report)
	s.raiseAlerts(ctx, report)
	return report, nil
}

func (s *TelemetryService) History(ctx context.Context, droneID int64, since time.Time) ([]domain.Telemetry, error) {
	return s.reports.ListByDrone(ctx, droneID, since)
}

// LatestPositions returns the last known report per drone, from the
// live index when warm, otherwise from storage.
func (s *TelemetryService) LatestPositions(ctx context.Context) ([]domain.Telemetry, error) {
	s.mu.RLock()
	if len(s.latest) > 0 {
		out := make([]domain.Telemetry, 0, len(s.latest))
		for _, t := range s.latest {
			out = append(out, t)
		}
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	return s.reports.LatestPerDrone(ctx)
}

// NearbyDrones finds drones within radiusMeters of a point using the
// hex grid k-ring as a prefilter and exact distances for the final
// cut.
func (s *TelemetryService) NearbyDrones(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.Telemetry, error) {
	p := geo.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: position out of range", domain.ErrInvalidGeometry)
	}
	if radiusMeters <= 0 {
		return []domain.Telemetry{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Telemetry, 0)
	for _, cell := range s.grid.NeighborsWithinRadius(p, radiusMeters) {
		for droneID := range s.byCell[cell] {
			report := s.latest[droneID]
			if geo.DistanceMeters(p, geo.Point{Lat: report.Latitude, Lng: report.Longitude}) <= radiusMeters {
				out = append(out, report)
			}
		}
	}
	return out, nil
}

func (s *TelemetryService) Alerts(ctx context.Context, resolved bool, since time.Time) ([]domain.Alert, error) {
	return s.alerts.List(ctx, resolved, since)
}

func (s *TelemetryService) ResolveAlert(ctx context.Context, id, adminID int64) (*domain.Alert, error) {
	return s.alerts.Resolve(ctx, id, adminID, time.Now())
}

func (s *TelemetryService) updateIndex(report domain.Telemetry) {
	cell := s.grid.CellOf(geo.Point{Lat: report.Latitude, Lng: report.Longitude})

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.cellByID[report.DroneID]; ok && prev != cell {
		delete(s.byCell[prev], report.DroneID)
		if len(s.byCell[prev]) == 0 {
			delete(s.byCell, prev)
		}
	}
	if s.byCell[cell] == nil {
		s.byCell[cell] = make(map[int64]struct{})
	}
	s.byCell[cell][report.DroneID] = struct{}{}
	s.cellByID[report.DroneID] = cell
	s.latest[report.DroneID] = report
}

func (s *TelemetryService) raiseAlerts(ctx context.Context, report *domain.Telemetry) {
	p := geo.Point{Lat: report.Latitude, Lng: report.Longitude}

	zones, err := s.zones.ActiveZones(ctx)
	if err != nil {
		log.Printf("load zones for alert check: %v", err)
		zones = nil
	}

	for _, zone := range zones {
		center := geo.Point{Lat: zone.CenterLat, Lng: zone.CenterLng}
		if !geo.PointInCircle(p, center, zone.Radius) {
			continue
		}
		s.createAlert(ctx, report, domain.AlertGeofenceViolation, domain.SeverityHigh,
			fmt.Sprintf("drone %d inside restricted zone %q", report.DroneID, zone.Name))
		if report.Altitude > zone.MaxAltitude {
			s.createAlert(ctx, report, domain.AlertAltitudeViolation, domain.SeverityHigh,
				fmt.Sprintf("drone %d at %.0fm exceeds %.0fm ceiling of zone %q",
					report.DroneID, report.Altitude, zone.MaxAltitude, zone.Name))
		}
	}

	if report.BatteryLevel > 0 && report.BatteryLevel < lowBatteryThreshold {
		s.createAlert(ctx, report, domain.AlertLowBattery, domain.SeverityMedium,
			fmt.Sprintf("drone %d battery at %.0f%%", report.DroneID, report.BatteryLevel))
	}
	if report.Status == domain.DroneStateEmergency {
		s.createAlert(ctx, report, domain.AlertEmergency, domain.SeverityCritical,
			fmt.Sprintf("drone %d reported emergency", report.DroneID))
	}
}

func (s *TelemetryService) createAlert(ctx context.Context, report *domain.Telemetry, alertType domain.AlertType, severity domain.AlertSeverity, message string) {
	alert := &domain.Alert{
		DroneID:         report.DroneID,
		FlightRequestID: report.FlightRequestID,
		Type:            alertType,
		Severity:        severity,
		Message:         message,
		Latitude:        report.Latitude,
		Longitude:       report.Longitude,
		Altitude:        report.Altitude,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		log.Printf("create %s alert for drone %d: %v", alertType, report.DroneID, err)
		return
	}

	if s.producer == nil || s.alertsTopic == "" {
		return
	}
	event := kafka.AlertEvent{
		AlertID:   alert.ID,
		DroneID:   alert.DroneID,
		Type:      string(alert.Type),
		Severity:  string(alert.Severity),
		Message:   alert.Message,
		Latitude:  alert.Latitude,
		Longitude: alert.Longitude,
		Altitude:  alert.Altitude,
	}
	if err := s.producer.Publish(ctx, s.alertsTopic, fmt.Sprintf("drone-%d", alert.DroneID), event); err != nil {
		log.Printf("publish alert event for drone %d: %v", alert.DroneID, err)
	}
}

var _ TelemetryUseCase = (*TelemetryService)(nil)

package flights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/geo"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
	"github.com/yerzhan-m/utm-airspace/internal/kafka"
	"github.com/yerzhan-m/utm-airspace/internal/ledger"
	"github.com/yerzhan-m/utm-airspace/internal/repository"
)

type FlightUseCase interface {
	CreateRequest(ctx context.Context, input CreateFlightRequestInput) (*domain.FlightRequest, error)
	GetRequest(ctx context.Context, id int64) (*domain.FlightRequest, error)
	ListByPilot(ctx context.Context, pilotID int64) ([]domain.FlightRequest, error)
	ListAll(ctx context.Context) ([]domain.FlightRequest, error)
	CheckConflicts(ctx context.Context, waypoints []domain.Waypoint, window domain.TimeWindow, maxAltitude float64) (*domain.ConflictResult, error)
	Transition(ctx context.Context, id int64, target domain.FlightStatus, adminID *int64, notes string) (*domain.FlightRequest, error)
	CompleteOverdueFlights(ctx context.Context) ([]domain.FlightRequest, error)
}

// ConflictChecker is the read-side detector; reservation happens here,
// after the check, under the ledger's own overlap guard.
type ConflictChecker interface {
	CheckConflicts(ctx context.Context, waypoints []domain.Waypoint, window domain.TimeWindow, band int) (*domain.ConflictResult, error)
}

type Cache interface {
	AcquireApprovalLock(ctx context.Context, flightRequestID int64, ttl time.Duration) (bool, error)
	ReleaseApprovalLock(ctx context.Context, flightRequestID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateFlightRequestInput struct {
	DroneID          int64             `json:"drone_id"`
	PilotID          int64             `json:"pilot_id"`
	PlannedStartTime time.Time         `json:"planned_start_time"`
	PlannedEndTime   time.Time         `json:"planned_end_time"`
	MaxAltitude      float64           `json:"max_altitude"`
	Purpose          string            `json:"purpose"`
	Waypoints        []domain.Waypoint `json:"waypoints"`
}

// transitions is the approval state machine. Statuses absent from the
// map are terminal.
var transitions = map[domain.FlightStatus][]domain.FlightStatus{
	domain.FlightStatusPending:  {domain.FlightStatusApproved, domain.FlightStatusDeclined, domain.FlightStatusCancelled},
	domain.FlightStatusApproved: {domain.FlightStatusInFlight, domain.FlightStatusCancelled},
	domain.FlightStatusInFlight: {domain.FlightStatusCompleted},
}

func canTransition(from, to domain.FlightStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type FlightService struct {
	flights      repository.FlightRepository
	drones       repository.DroneRepository
	reservations repository.ReservationRepository
	detector     ConflictChecker
	ledger       *ledger.Ledger
	grid         *hexgrid.Grid
	cache        Cache
	producer     Producer
	eventsTopic  string
	bandSize     float64
	lockTTL      time.Duration
}

type FlightServiceOption func(*FlightService)

func WithApprovalLockTTL(ttl time.Duration) FlightServiceOption {
	return func(s *FlightService) {
		s.lockTTL = ttl
	}
}

func NewFlightService(
	flights repository.FlightRepository,
	drones repository.DroneRepository,
	reservations repository.ReservationRepository,
	detector ConflictChecker,
	lg *ledger.Ledger,
	grid *hexgrid.Grid,
	cache Cache,
	producer Producer,
	eventsTopic string,
	bandSizeMeters float64,
	opts ...FlightServiceOption,
) *FlightService {
	service := &FlightService{
		flights:      flights,
		drones:       drones,
		reservations: reservations,
		detector:     detector,
		ledger:       lg,
		grid:         grid,
		cache:        cache,
		producer:     producer,
		eventsTopic:  eventsTopic,
		bandSize:     bandSizeMeters,
		lockTTL:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateRequest validates the route, refuses conflicted submissions
// and stores the request as PENDING.
func (s *FlightService) CreateRequest(ctx context.Context, input CreateFlightRequestInput) (*domain.FlightRequest, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	window := domain.TimeWindow{Start: input.PlannedStartTime, End: input.PlannedEndTime}
	result, err := s.CheckConflicts(ctx, input.Waypoints, window, input.MaxAltitude)
	if err != nil {
		return nil, err
	}
	if result.HasConflicts {
		return nil, fmt.Errorf("%w: %v", domain.ErrConflict, result.Messages)
	}

	request := &domain.FlightRequest{
		Token:            uuid.NewString(),
		DroneID:          input.DroneID,
		PilotID:          input.PilotID,
		PlannedStartTime: input.PlannedStartTime,
		PlannedEndTime:   input.PlannedEndTime,
		MaxAltitude:      input.MaxAltitude,
		Purpose:          input.Purpose,
		Waypoints:        input.Waypoints,
	}
	if err := s.flights.Create(ctx, request); err != nil {
		return nil, err
	}

	s.publish(ctx, "flight_requested", request)
	return request, nil
}

func (s *FlightService) GetRequest(ctx context.Context, id int64) (*domain.FlightRequest, error) {
	return s.flights.GetByID(ctx, id)
}

func (s *FlightService) ListByPilot(ctx context.Context, pilotID int64) ([]domain.FlightRequest, error) {
	return s.flights.ListByPilot(ctx, pilotID)
}

func (s *FlightService) ListAll(ctx context.Context) ([]domain.FlightRequest, error) {
	return s.flights.ListAll(ctx)
}

func (s *FlightService) CheckConflicts(ctx context.Context, waypoints []domain.Waypoint, window domain.TimeWindow, maxAltitude float64) (*domain.ConflictResult, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: at least 2 waypoints required", domain.ErrInvalidGeometry)
	}
	if !window.IsValid() {
		return nil, errors.New("planned end time must be after start time")
	}
	return s.detector.CheckConflicts(ctx, waypoints, window, ledger.BandFor(maxAltitude, s.bandSize))
}

// Transition drives the request through the approval state machine.
// Approving reserves the covered airspace; cancelling an approved
// request and completing a flight release it. Illegal transitions
// leave the request untouched.
func (s *FlightService) Transition(ctx context.Context, id int64, target domain.FlightStatus, adminID *int64, notes string) (*domain.FlightRequest, error) {
	current, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(current.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStateTransition, current.Status, target)
	}

	switch target {
	case domain.FlightStatusApproved:
		return s.approve(ctx, current, adminID, notes)
	case domain.FlightStatusDeclined:
		return s.finishStatus(ctx, current, target, "flight_declined", adminID, notes, false)
	case domain.FlightStatusCancelled:
		release := current.Status == domain.FlightStatusApproved
		return s.finishStatus(ctx, current, target, "flight_cancelled", adminID, notes, release)
	case domain.FlightStatusInFlight:
		return s.finishStatus(ctx, current, target, "flight_started", nil, "", false)
	case domain.FlightStatusCompleted:
		return s.finishStatus(ctx, current, target, "flight_completed", nil, "", true)
	default:
		return nil, fmt.Errorf("%w: unknown target status %s", domain.ErrInvalidStateTransition, target)
	}
}

// approve is the check-then-reserve critical section. The redis lock
// keeps other instances from approving the same request; the ledger's
// mutex makes the overlap check and the insertion atomic, so a racing
// approval of a different request over the same cells loses with
// domain.ErrConflict and can be retried after a fresh check.
func (s *FlightService) approve(ctx context.Context, request *domain.FlightRequest, adminID *int64, notes string) (*domain.FlightRequest, error) {
	if s.cache != nil {
		ok, err := s.cache.AcquireApprovalLock(ctx, request.ID, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("flight request is being processed")
		}
		defer func() {
			_ = s.cache.ReleaseApprovalLock(ctx, request.ID)
		}()
	}

	band := ledger.BandFor(request.MaxAltitude, s.bandSize)
	result, err := s.detector.CheckConflicts(ctx, request.Waypoints, request.Window(), band)
	if err != nil {
		return nil, err
	}
	if result.HasConflicts {
		return nil, fmt.Errorf("%w: %v", domain.ErrConflict, result.Messages)
	}

	cells := s.coveredCells(request.Waypoints)
	if err := s.ledger.Reserve(request.ID, cells, band, request.PlannedStartTime, request.PlannedEndTime); err != nil {
		return nil, err
	}

	reservations := make([]domain.Reservation, len(cells))
	for i, cell := range cells {
		reservations[i] = domain.Reservation{
			FlightRequestID: request.ID,
			CellID:          string(cell),
			AltitudeBand:    band,
			StartTime:       request.PlannedStartTime,
			EndTime:         request.PlannedEndTime,
		}
	}
	if err := s.reservations.CreateBatch(ctx, reservations); err != nil {
		s.ledger.Release(request.ID)
		return nil, err
	}

	now := time.Now()
	updated, err := s.flights.UpdateStatus(ctx, request.ID, domain.FlightStatusApproved, adminID, notes, &now)
	if err != nil {
		s.ledger.Release(request.ID)
		_ = s.reservations.DeleteByFlight(ctx, request.ID)
		return nil, err
	}

	s.publish(ctx, "flight_approved", updated)
	return updated, nil
}

func (s *FlightService) finishStatus(ctx context.Context, request *domain.FlightRequest, target domain.FlightStatus, eventType string, adminID *int64, notes string, release bool) (*domain.FlightRequest, error) {
	var approvedAt *time.Time
	if target == domain.FlightStatusDeclined {
		now := time.Now()
		approvedAt = &now
	}

	updated, err := s.flights.UpdateStatus(ctx, request.ID, target, adminID, notes, approvedAt)
	if err != nil {
		return nil, err
	}

	if release {
		s.ledger.Release(request.ID)
		if err := s.reservations.DeleteByFlight(ctx, request.ID); err != nil {
			log.Printf("delete reservations for flight %d: %v", request.ID, err)
		}
	}

	s.publish(ctx, eventType, updated)
	return updated, nil
}

// CompleteOverdueFlights closes airborne flights whose window has
// passed and frees their airspace. Run periodically by the worker.
func (s *FlightService) CompleteOverdueFlights(ctx context.Context) ([]domain.FlightRequest, error) {
	overdue, err := s.flights.ListOverdueInFlight(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	completed := make([]domain.FlightRequest, 0, len(overdue))
	for i := range overdue {
		updated, err := s.finishStatus(ctx, &overdue[i], domain.FlightStatusCompleted, "flight_completed", nil, "", true)
		if err != nil {
			log.Printf("complete flight %d: %v", overdue[i].ID, err)
			continue
		}
		completed = append(completed, *updated)
	}
	return completed, nil
}

func (s *FlightService) validate(ctx context.Context, input *CreateFlightRequestInput) error {
	drone, err := s.drones.GetByID(ctx, input.DroneID)
	if err != nil {
		return fmt.Errorf("drone %d: %w", input.DroneID, err)
	}
	if drone.OwnerID != input.PilotID {
		return fmt.Errorf("drone %d is not owned by pilot %d", input.DroneID, input.PilotID)
	}
	if !drone.IsActive {
		return fmt.Errorf("drone %d is not active", input.DroneID)
	}

	if !input.PlannedEndTime.After(input.PlannedStartTime) {
		return errors.New("planned end time must be after start time")
	}
	if input.MaxAltitude <= 0 {
		return errors.New("max altitude must be positive")
	}
	if input.MaxAltitude > drone.MaxAltitude {
		return fmt.Errorf("max altitude %.0fm exceeds drone limit %.0fm", input.MaxAltitude, drone.MaxAltitude)
	}
	if len(input.Waypoints) < 2 {
		return fmt.Errorf("%w: at least 2 waypoints required", domain.ErrInvalidGeometry)
	}

	path := make([]geo.Point, len(input.Waypoints))
	for i, wp := range input.Waypoints {
		p := geo.Point{Lat: wp.Latitude, Lng: wp.Longitude}
		if !p.Valid() {
			return fmt.Errorf("%w: waypoint %d out of range", domain.ErrInvalidGeometry, i)
		}
		if wp.Altitude < 0 || wp.Altitude > input.MaxAltitude {
			return fmt.Errorf("%w: waypoint %d altitude outside [0, %.0f]", domain.ErrInvalidGeometry, i, input.MaxAltitude)
		}
		if i > 0 && wp.Sequence <= input.Waypoints[i-1].Sequence {
			return fmt.Errorf("%w: waypoint sequence must be strictly increasing", domain.ErrInvalidGeometry)
		}
		path[i] = p
	}
	if geo.PathSelfIntersects(path) {
		return fmt.Errorf("%w: route crosses itself", domain.ErrInvalidGeometry)
	}
	return nil
}

func (s *FlightService) coveredCells(waypoints []domain.Waypoint) []hexgrid.CellID {
	path := make([]geo.Point, len(waypoints))
	for i, wp := range waypoints {
		path[i] = geo.Point{Lat: wp.Latitude, Lng: wp.Longitude}
	}
	return s.grid.CellsCoveredByPath(path)
}

func (s *FlightService) publish(ctx context.Context, eventType string, request *domain.FlightRequest) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.FlightEvent{
		Type:            eventType,
		Token:           request.Token,
		FlightRequestID: request.ID,
		DroneID:         request.DroneID,
		PilotID:         request.PilotID,
		Status:          string(request.Status),
		StartTime:       request.PlannedStartTime,
		EndTime:         request.PlannedEndTime,
		Notes:           request.ApprovalNotes,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, request.Token, event); err != nil {
		log.Printf("publish %s event for flight request %s: %v", eventType, request.Token, err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)

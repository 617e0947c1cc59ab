package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
)

type MockTelemetryRepository struct {
	mock.Mock
}

func (m *MockTelemetryRepository) Insert(ctx context.Context, report *domain.Telemetry) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockTelemetryRepository) ListByDrone(ctx context.Context, droneID int64, since time.Time) ([]domain.Telemetry, error) {
	args := m.Called(ctx, droneID, since)
	return args.Get(0).([]domain.Telemetry), args.Error(1)
}

func (m *MockTelemetryRepository) LatestPerDrone(ctx context.Context) ([]domain.Telemetry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Telemetry), args.Error(1)
}

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) List(ctx context.Context, resolved bool, since time.Time) ([]domain.Alert, error) {
	args := m.Called(ctx, resolved, since)
	return args.Get(0).([]domain.Alert), args.Error(1)
}

func (m *MockAlertRepository) Resolve(ctx context.Context, id int64, resolvedBy int64, at time.Time) (*domain.Alert, error) {
	args := m.Called(ctx, id, resolvedBy, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Alert), args.Error(1)
}

type MockZoneSource struct {
	mock.Mock
}

func (m *MockZoneSource) ActiveZones(ctx context.Context) ([]domain.RestrictedZone, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RestrictedZone), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type telemetryMocks struct {
	reports  *MockTelemetryRepository
	alerts   *MockAlertRepository
	zones    *MockZoneSource
	producer *MockProducer
}

func newTestService() (*TelemetryService, *telemetryMocks) {
	m := &telemetryMocks{
		reports:  &MockTelemetryRepository{},
		alerts:   &MockAlertRepository{},
		zones:    &MockZoneSource{},
		producer: &MockProducer{},
	}
	service := NewTelemetryService(m.reports, m.alerts, m.zones, hexgrid.NewGrid(8, 100), m.producer, "drone_alerts")
	return service, m
}

func cleanIngest() IngestInput {
	return IngestInput{
		DroneID:      4,
		Latitude:     51.1605,
		Longitude:    71.4706,
		Altitude:     80,
		Speed:        10,
		Heading:      90,
		BatteryLevel: 85,
	}
}

func TestTelemetryService_Ingest_Success(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	m.reports.On("Insert", ctx, mock.AnythingOfType("*domain.Telemetry")).Return(nil).Once()
	m.zones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Once()

	report, err := service.Ingest(ctx, cleanIngest())

	assert.NoError(t, err)
	assert.NotNil(t, report)
	assert.Equal(t, domain.DroneStateAirborne, report.Status) // default
	assert.False(t, report.Timestamp.IsZero())

	m.reports.AssertExpectations(t)
	m.alerts.AssertNotCalled(t, "Create")
	m.producer.AssertNotCalled(t, "Publish")
}

func TestTelemetryService_Ingest_InvalidPosition(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	input := cleanIngest()
	input.Latitude = 95

	report, err := service.Ingest(ctx, input)

	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
	assert.Nil(t, report)
	m.reports.AssertNotCalled(t, "Insert")
}

func TestTelemetryService_Ingest_GeofenceAlert(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	zone := domain.RestrictedZone{
		ID:          1,
		Name:        "Airport CTR",
		CenterLat:   51.1605,
		CenterLng:   71.4704,
		Radius:      200,
		MaxAltitude: 150,
		IsActive:    true,
	}

	m.reports.On("Insert", ctx, mock.Anything).Return(nil).Once()
	m.zones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{zone}, nil).Once()
	m.alerts.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Type == domain.AlertGeofenceViolation && a.Severity == domain.SeverityHigh
	})).Return(nil).Once()
	m.producer.On("Publish", ctx, "drone_alerts", "drone-4", mock.Anything).Return(nil).Once()

	// Position ~15m from the zone center, below its ceiling.
	report, err := service.Ingest(ctx, cleanIngest())

	assert.NoError(t, err)
	assert.NotNil(t, report)

	m.alerts.AssertExpectations(t)
	m.producer.AssertExpectations(t)
}

func TestTelemetryService_Ingest_AltitudeAlert(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	zone := domain.RestrictedZone{
		ID:          1,
		Name:        "Stadium",
		CenterLat:   51.1605,
		CenterLng:   71.4704,
		Radius:      200,
		MaxAltitude: 50,
		IsActive:    true,
	}

	m.reports.On("Insert", ctx, mock.Anything).Return(nil).Once()
	m.zones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{zone}, nil).Once()

	// Inside the zone at 80m against a 50m ceiling: geofence plus
	// altitude alert.
	m.alerts.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Type == domain.AlertGeofenceViolation
	})).Return(nil).Once()
	m.alerts.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Type == domain.AlertAltitudeViolation
	})).Return(nil).Once()
	m.producer.On("Publish", ctx, "drone_alerts", "drone-4", mock.Anything).Return(nil).Twice()

	_, err := service.Ingest(ctx, cleanIngest())

	assert.NoError(t, err)
	m.alerts.AssertExpectations(t)
}

func TestTelemetryService_Ingest_LowBatteryAndEmergency(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	input := cleanIngest()
	input.BatteryLevel = 12
	input.Status = string(domain.DroneStateEmergency)

	m.reports.On("Insert", ctx, mock.Anything).Return(nil).Once()
	m.zones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Once()
	m.alerts.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Type == domain.AlertLowBattery && a.Severity == domain.SeverityMedium
	})).Return(nil).Once()
	m.alerts.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Type == domain.AlertEmergency && a.Severity == domain.SeverityCritical
	})).Return(nil).Once()
	m.producer.On("Publish", ctx, "drone_alerts", "drone-4", mock.Anything).Return(nil).Twice()

	report, err := service.Ingest(ctx, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.DroneStateEmergency, report.Status)
	m.alerts.AssertExpectations(t)
}

func TestTelemetryService_LatestPositions(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	// Cold index: falls back to storage.
	stored := []domain.Telemetry{{DroneID: 4, Latitude: 51.16, Longitude: 71.47}}
	m.reports.On("LatestPerDrone", ctx).Return(stored, nil).Once()

	positions, err := service.LatestPositions(ctx)
	assert.NoError(t, err)
	assert.Equal(t, stored, positions)

	// Warm index: only the newest report per drone survives.
	m.reports.On("Insert", ctx, mock.Anything).Return(nil).Twice()
	m.zones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Twice()

	first := cleanIngest()
	_, err = service.Ingest(ctx, first)
	assert.NoError(t, err)

	second := cleanIngest()
	second.Latitude = 51.1700
	second.Altitude = 60
	_, err = service.Ingest(ctx, second)
	assert.NoError(t, err)

	positions, err = service.LatestPositions(ctx)
	assert.NoError(t, err)
	assert.Len(t, positions, 1)
	assert.Equal(t, 51.1700, positions[0].Latitude)

	m.reports.AssertExpectations(t)
}

func TestTelemetryService_NearbyDrones(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	m.reports.On("Insert", ctx, mock.Anything).Return(nil).Times(2)
	m.zones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Times(2)

	near := cleanIngest()
	_, err := service.Ingest(ctx, near)
	assert.NoError(t, err)

	far := cleanIngest()
	far.DroneID = 5
	far.Latitude = 51.30 // ~15km north
	_, err = service.Ingest(ctx, far)
	assert.NoError(t, err)

	found, err := service.NearbyDrones(ctx, 51.1605, 71.4704, 1000)
	assert.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, int64(4), found[0].DroneID)

	// Zero radius finds nothing.
	found, err = service.NearbyDrones(ctx, 51.1605, 71.4704, 0)
	assert.NoError(t, err)
	assert.Empty(t, found)

	// Invalid query point is rejected.
	_, err = service.NearbyDrones(ctx, 95, 71.4704, 1000)
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
}

func TestTelemetryService_ResolveAlert(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	resolved := &domain.Alert{ID: 9, DroneID: 4, IsResolved: true}
	m.alerts.On("Resolve", ctx, int64(9), int64(3), mock.AnythingOfType("time.Time")).
		Return(resolved, nil).Once()

	alert, err := service.ResolveAlert(ctx, 9, 3)

	assert.NoError(t, err)
	assert.True(t, alert.IsResolved)
	m.alerts.AssertExpectations(t)
}

func TestTelemetryService_History(t *testing.T) {
	service, m := newTestService()
	ctx := context.Background()

	since := time.Now().Add(-time.Hour)
	reports := []domain.Telemetry{{DroneID: 4}}
	m.reports.On("ListByDrone", ctx, int64(4), since).Return(reports, nil).Once()

	got, err := service.History(ctx, 4, since)

	assert.NoError(t, err)
	assert.Equal(t, reports, got)
	m.reports.AssertExpectations(t)
}

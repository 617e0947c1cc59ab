package conflict

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/geo"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
	"github.com/yerzhan-m/utm-airspace/internal/ledger"
)

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

var testWindow = domain.TimeWindow{
	Start: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC),
}

func testRoute() []domain.Waypoint {
	return []domain.Waypoint{
		{Sequence: 1, Latitude: 51.1605, Longitude: 71.4706, Altitude: 80},
		{Sequence: 2, Latitude: 51.1700, Longitude: 71.4800, Altitude: 80},
	}
}

func TestDetector_CheckConflicts_CleanRoute(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	detector := NewDetector(mockZones, grid, ledger.New())

	ctx := context.Background()
	mockZones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Once()

	result, err := detector.CheckConflicts(ctx, testRoute(), testWindow, 1)

	assert.NoError(t, err)
	assert.False(t, result.HasConflicts)
	assert.NotNil(t, result.Waypoints)
	assert.NotNil(t, result.Zones)
	assert.Empty(t, result.Waypoints)
	assert.Empty(t, result.Zones)
	assert.Empty(t, result.Messages)

	mockZones.AssertExpectations(t)
}

func TestDetector_CheckConflicts_RestrictedZone(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	detector := NewDetector(mockZones, grid, ledger.New())

	ctx := context.Background()
	zone := domain.RestrictedZone{
		ID:          1,
		Name:        "Airport CTR",
		CenterLat:   51.1605,
		CenterLng:   71.4704,
		Radius:      200,
		MaxAltitude: 0,
		IsActive:    true,
	}
	mockZones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{zone}, nil).Once()

	// The first waypoint is ~15m from the zone center.
	result, err := detector.CheckConflicts(ctx, testRoute(), testWindow, 1)

	assert.NoError(t, err)
	assert.True(t, result.HasConflicts)
	assert.Len(t, result.Zones, 1)
	assert.Equal(t, zone.ID, result.Zones[0].ID)
	assert.NotEmpty(t, result.Messages)

	mockZones.AssertExpectations(t)
}

func TestDetector_CheckConflicts_ZoneFarAway(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	detector := NewDetector(mockZones, grid, ledger.New())

	ctx := context.Background()
	zone := domain.RestrictedZone{
		ID:        1,
		Name:      "Airport CTR",
		CenterLat: 51.0500, // ~12km south of the route
		CenterLng: 71.4704,
		Radius:    200,
		IsActive:  true,
	}
	mockZones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{zone}, nil).Once()

	result, err := detector.CheckConflicts(ctx, testRoute(), testWindow, 1)

	assert.NoError(t, err)
	assert.False(t, result.HasConflicts)
	assert.Empty(t, result.Zones)

	mockZones.AssertExpectations(t)
}

func TestDetector_CheckConflicts_AltitudeCeiling(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	detector := NewDetector(mockZones, grid, ledger.New())

	ctx := context.Background()
	// Zone allows overflight up to 50m; the route flies at 80m inside it.
	zone := domain.RestrictedZone{
		ID:          1,
		Name:        "Stadium",
		CenterLat:   51.1605,
		CenterLng:   71.4704,
		Radius:      200,
		MaxAltitude: 50,
		IsActive:    true,
	}
	mockZones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{zone}, nil).Once()

	result, err := detector.CheckConflicts(ctx, testRoute(), testWindow, 1)

	assert.NoError(t, err)
	assert.True(t, result.HasConflicts)

	found := false
	for _, msg := range result.Messages {
		if strings.Contains(msg, "ceiling") {
			found = true
		}
	}
	assert.Truef(t, found, "expected an altitude ceiling message, got %v", result.Messages)

	mockZones.AssertExpectations(t)
}

func TestDetector_CheckConflicts_ReservedCells(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	lg := ledger.New()
	detector := NewDetector(mockZones, grid, lg)

	ctx := context.Background()
	mockZones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Twice()

	waypoints := testRoute()
	path := []geo.Point{
		{Lat: waypoints[0].Latitude, Lng: waypoints[0].Longitude},
		{Lat: waypoints[1].Latitude, Lng: waypoints[1].Longitude},
	}
	cells := grid.CellsCoveredByPath(path)
	assert.NoError(t, lg.Reserve(99, cells, 1, testWindow.Start, testWindow.End))

	// Same band and overlapping window: every waypoint cell is taken.
	result, err := detector.CheckConflicts(ctx, waypoints, testWindow, 1)
	assert.NoError(t, err)
	assert.True(t, result.HasConflicts)
	assert.Len(t, result.Waypoints, len(waypoints))
	assert.NotEmpty(t, result.Messages)

	// One band up: no conflict.
	result, err = detector.CheckConflicts(ctx, waypoints, testWindow, 2)
	assert.NoError(t, err)
	assert.False(t, result.HasConflicts)

	mockZones.AssertExpectations(t)
}

func TestDetector_CheckConflicts_DisjointWindow(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	lg := ledger.New()
	detector := NewDetector(mockZones, grid, lg)

	ctx := context.Background()
	mockZones.On("ActiveZones", ctx).Return([]domain.RestrictedZone{}, nil).Once()

	waypoints := testRoute()
	cells := grid.CellsCoveredByPath([]geo.Point{
		{Lat: waypoints[0].Latitude, Lng: waypoints[0].Longitude},
		{Lat: waypoints[1].Latitude, Lng: waypoints[1].Longitude},
	})
	assert.NoError(t, lg.Reserve(99, cells, 1, testWindow.Start, testWindow.End))

	later := domain.TimeWindow{
		Start: testWindow.End,
		End:   testWindow.End.Add(30 * time.Minute),
	}
	result, err := detector.CheckConflicts(ctx, waypoints, later, 1)

	assert.NoError(t, err)
	assert.False(t, result.HasConflicts)

	mockZones.AssertExpectations(t)
}

func TestDetector_CheckConflicts_ZoneSourceError(t *testing.T) {
	mockZones := &MockZoneSource{}
	grid := hexgrid.NewGrid(8, 100)
	detector := NewDetector(mockZones, grid, ledger.New())

	ctx := context.Background()
	mockZones.On("ActiveZones", ctx).Return(nil, errors.New("redis down")).Once()

	result, err := detector.CheckConflicts(ctx, testRoute(), testWindow, 1)

	assert.Error(t, err)
	assert.Nil(t, result)

	mockZones.AssertExpectations(t)
}

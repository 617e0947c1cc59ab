package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/service/flights"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) CreateRequest(ctx context.Context, input flights.CreateFlightRequestInput) (*domain.FlightRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightRequest), args.Error(1)
}

func (m *MockFlightUseCase) GetRequest(ctx context.Context, id int64) (*domain.FlightRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightRequest), args.Error(1)
}

func (m *MockFlightUseCase) ListByPilot(ctx context.Context, pilotID int64) ([]domain.FlightRequest, error) {
	args := m.Called(ctx, pilotID)
	return args.Get(0).([]domain.FlightRequest), args.Error(1)
}

func (m *MockFlightUseCase) ListAll(ctx context.Context) ([]domain.FlightRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FlightRequest), args.Error(1)
}

func (m *MockFlightUseCase) CheckConflicts(ctx context.Context, waypoints []domain.Waypoint, window domain.TimeWindow, maxAltitude float64) (*domain.ConflictResult, error) {
	args := m.Called(ctx, waypoints, window, maxAltitude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConflictResult), args.Error(1)
}

func (m *MockFlightUseCase) Transition(ctx context.Context, id int64, target domain.FlightStatus, adminID *int64, notes string) (*domain.FlightRequest, error) {
	args := m.Called(ctx, id, target, adminID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightRequest), args.Error(1)
}

func (m *MockFlightUseCase) CompleteOverdueFlights(ctx context.Context) ([]domain.FlightRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FlightRequest), args.Error(1)
}

func TestFlightHandler_checkConflicts(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	start := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	req := checkConflictsRequest{
		Waypoints: []domain.Waypoint{
			{Sequence: 1, Latitude: 51.1605, Longitude: 71.4706, Altitude: 80},
			{Sequence: 2, Latitude: 51.1700, Longitude: 71.4800, Altitude: 80},
		},
		PlannedStartTime: start,
		PlannedEndTime:   start.Add(30 * time.Minute),
		MaxAltitude:      100,
	}
	body, _ := json.Marshal(req)
	c.Request = httptest.NewRequest("POST", "/flights/check-conflicts", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	result := &domain.ConflictResult{
		HasConflicts: true,
		Messages:     []string{"route intersects restricted zone \"Airport CTR\" (radius 200m)"},
		Waypoints:    []domain.Waypoint{},
		Zones:        []domain.RestrictedZone{{ID: 1, Name: "Airport CTR"}},
	}
	mockService.On("CheckConflicts", c.Request.Context(), req.Waypoints,
		domain.TimeWindow{Start: req.PlannedStartTime, End: req.PlannedEndTime}, 100.0).
		Return(result, nil)

	handler.checkConflicts(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response conflictResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response.HasConflicts)
	assert.Len(t, response.RestrictedZones, 1)
	assert.NotNil(t, response.Conflicts)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_createRequest(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	start := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	input := flights.CreateFlightRequestInput{
		DroneID:          4,
		PilotID:          7,
		PlannedStartTime: start,
		PlannedEndTime:   start.Add(30 * time.Minute),
		MaxAltitude:      100,
		Waypoints: []domain.Waypoint{
			{Sequence: 1, Latitude: 51.1605, Longitude: 71.4706, Altitude: 80},
			{Sequence: 2, Latitude: 51.1700, Longitude: 71.4800, Altitude: 80},
		},
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/flights/requests", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.FlightRequest{
		ID:      11,
		Token:   "token-11",
		DroneID: 4,
		PilotID: 7,
		Status:  domain.FlightStatusPending,
	}
	mockService.On("CreateRequest", c.Request.Context(), input).Return(created, nil)

	handler.createRequest(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response domain.FlightRequest
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "token-11", response.Token)
	assert.Equal(t, domain.FlightStatusPending, response.Status)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_createRequest_Conflict(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(flights.CreateFlightRequestInput{DroneID: 4, PilotID: 7})
	c.Request = httptest.NewRequest("POST", "/flights/requests", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateRequest", c.Request.Context(), mock.Anything).
		Return(nil, domain.ErrConflict)

	handler.createRequest(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_NotFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	c.Request = httptest.NewRequest("GET", "/flights/requests/42", nil)

	mockService.On("GetRequest", c.Request.Context(), int64(42)).Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_InvalidID(t *testing.T) {
	handler := NewFlightHandler(&MockFlightUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Request = httptest.NewRequest("GET", "/flights/requests/abc", nil)

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_updateStatus(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	adminID := int64(3)
	// Status arrives lowercase from the client and is normalized.
	body, _ := json.Marshal(updateStatusRequest{Status: "approved", AdminID: &adminID, Notes: "ok"})
	c.Params = gin.Params{{Key: "id", Value: "11"}}
	c.Request = httptest.NewRequest("PUT", "/flights/requests/11/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	approved := &domain.FlightRequest{ID: 11, Token: "token-11", Status: domain.FlightStatusApproved}
	mockService.On("Transition", c.Request.Context(), int64(11), domain.FlightStatusApproved, &adminID, "ok").
		Return(approved, nil)

	handler.updateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.FlightRequest
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, domain.FlightStatusApproved, response.Status)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_updateStatus_IllegalTransition(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(updateStatusRequest{Status: "APPROVED"})
	c.Params = gin.Params{{Key: "id", Value: "11"}}
	c.Request = httptest.NewRequest("PUT", "/flights/requests/11/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Transition", c.Request.Context(), int64(11), domain.FlightStatusApproved, (*int64)(nil), "").
		Return(nil, domain.ErrInvalidStateTransition)

	handler.updateStatus(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_listByPilot(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("GET", "/flights/requests?pilot_id=7", nil)

	requests := []domain.FlightRequest{{ID: 11, PilotID: 7}}
	mockService.On("ListByPilot", c.Request.Context(), int64(7)).Return(requests, nil)

	handler.listByPilot(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.FlightRequest
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response, 1)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_listByPilot_MissingQuery(t *testing.T) {
	handler := NewFlightHandler(&MockFlightUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("GET", "/flights/requests", nil)

	handler.listByPilot(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

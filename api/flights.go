package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type checkConflictsRequest struct {
	Waypoints        []domain.Waypoint `json:"waypoints"`
	PlannedStartTime time.Time         `json:"planned_start_time"`
	PlannedEndTime   time.Time         `json:"planned_end_time"`
	MaxAltitude      float64           `json:"max_altitude"`
}

// conflictResponse matches the shape the frontend's checkConflicts
// mutation consumes.
type conflictResponse struct {
	HasConflicts    bool                    `json:"has_conflicts"`
	Conflicts       []domain.Waypoint       `json:"conflicts"`
	RestrictedZones []domain.RestrictedZone `json:"restricted_zones"`
	Messages        []string                `json:"messages,omitempty"`
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	AdminID *int64 `json:"admin_id"`
	Notes   string `json:"notes"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/check-conflicts", h.checkConflicts)
	router.POST("/requests", h.createRequest)
	router.GET("/requests", h.listByPilot)
	router.GET("/requests/all", h.listAll)
	router.GET("/requests/:id", h.get)
	router.PUT("/requests/:id/status", h.updateStatus)
}

func (h *FlightHandler) checkConflicts(c *gin.Context) {
	var req checkConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	window := domain.TimeWindow{Start: req.PlannedStartTime, End: req.PlannedEndTime}
	result, err := h.service.CheckConflicts(c.Request.Context(), req.Waypoints, window, req.MaxAltitude)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, conflictResponse{
		HasConflicts:    result.HasConflicts,
		Conflicts:       result.Waypoints,
		RestrictedZones: result.Zones,
		Messages:        result.Messages,
	})
}

func (h *FlightHandler) createRequest(c *gin.Context) {
	var req flights.CreateFlightRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.CreateRequest(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *FlightHandler) listByPilot(c *gin.Context) {
	pilotID, err := strconv.ParseInt(c.Query("pilot_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pilot_id is required"})
		return
	}

	requests, err := h.service.ListByPilot(c.Request.Context(), pilotID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *FlightHandler) listAll(c *gin.Context) {
	requests, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	request, err := h.service.GetRequest(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *FlightHandler) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := domain.FlightStatus(strings.ToUpper(req.Status))
	request, err := h.service.Transition(c.Request.Context(), id, target, req.AdminID, req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yerzhan-m/utm-airspace/internal/service/telemetry"
)

type MonitoringHandler struct {
	service telemetry.TelemetryUseCase
}

type resolveAlertRequest struct {
	AdminID int64 `json:"admin_id"`
}

func NewMonitoringHandler(service telemetry.TelemetryUseCase) *MonitoringHandler {
	return &MonitoringHandler{service: service}
}

func (h *MonitoringHandler) RegisterTelemetry(router *gin.RouterGroup) {
	router.POST("/", h.ingest)
	router.GET("/:droneID", h.history)
}

func (h *MonitoringHandler) RegisterMonitoring(router *gin.RouterGroup) {
	router.GET("/positions", h.positions)
	router.GET("/nearby", h.nearby)
	router.GET("/alerts", h.alerts)
	router.PUT("/alerts/:id/resolve", h.resolveAlert)
}

func (h *MonitoringHandler) ingest(c *gin.Context) {
	var req telemetry.IngestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *MonitoringHandler) history(c *gin.Context) {
	droneID, err := strconv.ParseInt(c.Param("droneID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid drone id"})
		return
	}

	hours := 1
	if raw := c.Query("hours"); raw != "" {
		hours, err = strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	reports, err := h.service.History(c.Request.Context(), droneID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *MonitoringHandler) positions(c *gin.Context) {
	reports, err := h.service.LatestPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *MonitoringHandler) nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	radius, radErr := strconv.ParseFloat(c.Query("radius"), 64)
	if latErr != nil || lngErr != nil || radErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng and radius are required"})
		return
	}

	reports, err := h.service.NearbyDrones(c.Request.Context(), lat, lng, radius)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *MonitoringHandler) alerts(c *gin.Context) {
	resolved := c.Query("resolved") == "true"

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	alerts, err := h.service.Alerts(c.Request.Context(), resolved, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *MonitoringHandler) resolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req resolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.service.ResolveAlert(c.Request.Context(), id, req.AdminID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

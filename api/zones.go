package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yerzhan-m/utm-airspace/internal/service/zones"
)

type ZoneHandler struct {
	service zones.ZoneUseCase
}

type updateZoneRequest struct {
	Radius      float64 `json:"radius"`
	MaxAltitude float64 `json:"max_altitude"`
}

func NewZoneHandler(service zones.ZoneUseCase) *ZoneHandler {
	return &ZoneHandler{service: service}
}

func (h *ZoneHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

func (h *ZoneHandler) create(c *gin.Context) {
	var req zones.CreateZoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	zone, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, zone)
}

func (h *ZoneHandler) list(c *gin.Context) {
	zones, err := h.service.ActiveZones(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *ZoneHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req updateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	zone, err := h.service.Update(c.Request.Context(), id, req.Radius, req.MaxAltitude)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, zone)
}

func (h *ZoneHandler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yerzhan-m/utm-airspace/internal/service/drones"
)

type DroneHandler struct {
	service drones.DroneUseCase
}

func NewDroneHandler(service drones.DroneUseCase) *DroneHandler {
	return &DroneHandler{service: service}
}

func (h *DroneHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.register)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

func (h *DroneHandler) register(c *gin.Context) {
	var req drones.RegisterDroneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	drone, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, drone)
}

func (h *DroneHandler) list(c *gin.Context) {
	ownerID, err := strconv.ParseInt(c.Query("owner_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	drones, err := h.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, drones)
}

func (h *DroneHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	drone, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, drone)
}

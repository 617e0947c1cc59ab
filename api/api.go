// Package api contains the HTTP handlers of the UTM service. Handlers
// translate between REST JSON and the use-case services; no domain
// logic lives here.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

// abortWithError maps domain sentinel errors onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidStateTransition):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"perfect-day/internal/service"
)

// fail maps service errors to a status and message. Anything unrecognised is
// logged and answered with a 500 carrying the generic message.
func (h *Handler) fail(c *gin.Context, err error, generic string) {
	switch {
	case errors.Is(err, service.ErrMissingUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
	case errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidMood),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, service.ErrUnknownUser),
		errors.Is(err, service.ErrInvalidTime),
		errors.Is(err, service.ErrInvalidFrequency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, service.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.log.Error(generic, zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": generic})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

package handler

import (
	"errors"
	"net/http"

	"clickboard/internal/service"
	"clickboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownLeaderboard):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrCharacterNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), "%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

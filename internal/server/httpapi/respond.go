package httpapi

import (
	"errors"
	"net/http"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFromError maps the service error taxonomy to HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "request failed", "error", err)
		// Do not leak internals in 5xx bodies.
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

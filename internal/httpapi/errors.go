package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/models"
	"github.com/materialgate/gatepass/internal/workflow"
)

// writeError maps domain errors onto HTTP statuses. Validation failures
// carry the full field list so the client can mark every bad field at once.
func (s *Server) writeError(c *gin.Context, err error) {
	var verrs *models.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": verrs.Errors,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrRequestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidState), errors.Is(err, db.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrIncompletePhotoSet):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("internal error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

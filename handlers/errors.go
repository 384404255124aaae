package handlers

import (
	"errors"
	"net/http"

	"fadetogo/models"
	"fadetogo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[models.ErrorKind]int{
	models.KindOutOfServiceArea:    http.StatusUnprocessableEntity,
	models.KindProviderUnavailable: http.StatusUnprocessableEntity,
	models.KindSlotTaken:           http.StatusConflict,
	models.KindInvalidTransition:   http.StatusConflict,
	models.KindStoreError:          http.StatusServiceUnavailable,
	models.KindInvalidConfig:       http.StatusBadRequest,
	models.KindInvalidRequest:      http.StatusBadRequest,
	models.KindNotFound:            http.StatusNotFound,
}

// respondError writes err as {"error": kind, "message": ...}. Errors without
// a kind are reported as internal errors without leaking their text.
func respondError(c *gin.Context, err error) {
	var se *models.SchedulingError
	if !errors.As(err, &se) {
		getLogger(c).Error("Unclassified error", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, utils.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred. Please try again later.",
		})
		return
	}

	status, ok := statusByKind[se.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	logger := getLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("kind", string(se.Kind)), zap.Error(err))
	} else {
		logger.Info("Request rejected", zap.String("kind", string(se.Kind)), zap.String("message", se.Message))
	}
	if se.Retryable() {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, utils.ErrorResponse{Error: string(se.Kind), Message: se.Message})
}

func badRequest(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusBadRequest, string(models.KindInvalidRequest), message)
}

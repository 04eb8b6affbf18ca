package api

import (
	"net/http"

	"hotel-service/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindSignatureMismatch:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindIllegalState, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPaymentProcessing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err's kind. Internal details stay in the logs.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(statusFor(kind), gin.H{
		"error": apperr.PublicMessage(err),
		"code":  kind.String(),
	})
}

// README: JSON helpers and apperr-to-HTTP status mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/apperr"
)

func writeAppError(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  string(apperr.CodePersistenceFailure),
			"error": "internal error",
		})
		return
	}
	c.JSON(statusFor(e.Code), gin.H{"code": string(e.Code), "error": e.Message})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidRequest:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidStatusTransition, apperr.CodeResourceUnavailable:
		return http.StatusConflict
	case apperr.CodeAuthorizationDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "faucet-tool-backend/internal/common/errors"
)

// ErrorHandler renders errors attached via c.Error as a JSON body, mapping
// application codes to HTTP statuses. Internal faults are logged with their
// cause; the response carries only the code and message.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		requestID := c.GetString("request_id")

		appErr, ok := apperrors.AsAppError(err)
		if !ok {
			appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
		}
		appErr.WithRequestID(requestID)

		if appErr.IsInternal() {
			logger.Error().
				Str("request_id", requestID).
				Str("path", c.FullPath()).
				Str("code", string(appErr.Code)).
				Err(err).
				Msg("request failed")
		}

		c.JSON(statusFor(appErr.Code), gin.H{
			"error":      appErr.Message,
			"code":       appErr.Code,
			"request_id": requestID,
		})
	}
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeAccessDenied:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeNotConfigured, apperrors.ErrCodeNoActiveGiveaway:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeGiveawayActive, apperrors.ErrCodeAlreadyClaimed, apperrors.ErrCodeClaimInProgress:
		return http.StatusConflict
	case apperrors.ErrCodeNoEntries, apperrors.ErrCodeNoPrizeInventory:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

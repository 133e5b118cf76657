package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agora-ir/platform/pkg/apperror"
)

// ErrorResponse is the body returned for errors that escaped a handler.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler turns errors attached to the gin context into a JSON
// response. Handlers that already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		switch apperror.CodeOf(lastErr.Err) {
		case apperror.ErrNotFound:
			status = http.StatusNotFound
		case apperror.ErrBadRequest:
			status = http.StatusBadRequest
		case apperror.ErrDataUnavailable, apperror.ErrChannelConfig:
			status = http.StatusServiceUnavailable
		case apperror.ErrTransport:
			status = http.StatusBadGateway
		}

		c.JSON(status, ErrorResponse{
			Code:      status,
			Message:   lastErr.Error(),
			RequestID: requestID,
		})
	}
}

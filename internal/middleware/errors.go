package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/response"
)

// ErrorHandler renders the last error a handler pushed with c.Error.
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := apperr.From(c.Errors.Last().Err)
		if err.Kind == apperr.KindInternal {
			log.Error().
				Err(err.Err).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", c.GetString(requestIDKey)).
				Msg("request failed")
		}
		response.Error(c, err)
	}
}

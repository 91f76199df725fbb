package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/physioflow/practice-api/internal/handler"
)

// statusCoder is implemented by application errors that know their HTTP status.
type statusCoder interface {
	error
	StatusCode() int
}

// ErrorHandler converts errors attached via c.Error into the standard
// response envelope. The last attached error wins.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		message := "internal server error"
		if coded, ok := err.(statusCoder); ok {
			status = coded.StatusCode()
			message = coded.Error()
		}

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request failed")
			message = "internal server error"
		}

		c.JSON(status, handler.NewErrorResponse(message))
	}
}

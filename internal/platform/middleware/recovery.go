package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500. The response carries the request
// id so a client report can be matched to the logged stack.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	logger = logger.With().Str("component", "recovery").Logger()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				rid, _ := c.Get("request_id").(string)
				logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("handler panicked")
				err = echo.NewHTTPError(http.StatusInternalServerError, panicMessage(rid))
			}()
			return next(c)
		}
	}
}

func panicMessage(requestID string) string {
	if requestID == "" {
		return "Internal server error"
	}
	return "Internal server error (request " + requestID + ")"
}

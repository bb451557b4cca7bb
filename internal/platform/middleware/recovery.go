package middleware

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/telemetry"
)

// Recovery converts a handler panic into a plain 500 and keeps the server
// alive. Recovered panics are counted on the registry so operators can alert
// on them; metrics may be nil.
func Recovery(logger zerolog.Logger, metrics *telemetry.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4096)
					n := runtime.Stack(stack, false)
					rid, _ := c.Get("request_id").(string)

					logger.Error().
						Str("request_id", rid).
						Str("method", c.Request().Method).
						Str("route", c.Path()).
						Interface("panic", r).
						Bytes("stack", stack[:n]).
						Msg("panic recovered")

					if metrics != nil {
						metrics.PanicsTotal.Inc()
					}
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}

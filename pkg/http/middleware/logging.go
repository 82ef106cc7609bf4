package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "FinCast/pkg/logger"
)

// RequestLogging writes one structured line per request. Handler errors are
// rendered here so the logged status is the one the client sees.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes", res.Size),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				fields = append(fields, applogger.String("request_id", id))
			}
			if res.Status >= 500 {
				l.Error("http request", fields...)
			} else {
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// BodyLimit returns middleware that rejects request bodies larger than
// maxBytes with 413. Booking payloads are tiny; anything large is abuse.
func BodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > maxBytes {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			return next(c)
		}
	}
}

package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"docfiling/internal/logger"
)

// Logger emits one entry per request with request_id, method, path, status,
// latency in milliseconds and, when known, the acting user.
func Logger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		settle(c, c.Next())

		fields := logrus.Fields{
			"request_id": RequestIDFrom(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if actor, ok := ActorFrom(c); ok {
			fields["user"] = actor.Username
		}

		entry := log.WithFields(fields)
		switch status := c.Response().StatusCode(); {
		case status >= fiber.StatusInternalServerError:
			entry.Error("http_request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
		return nil
	}
}

// LoggerWithWriter is Logger writing JSON lines to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.NewJSON(w, loc))
}

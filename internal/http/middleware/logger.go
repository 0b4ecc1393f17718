package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger is a middleware that logs each HTTP request as one JSON line.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - error, when a handler recorded an internal failure
func Logger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		fields := []zap.Field{
			zap.String("request_id", rid),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", statusOf(c, err)),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}
		if msg, ok := c.Locals(ErrorLocalKey).(string); ok {
			fields = append(fields, zap.String("error", msg))
		} else if err != nil {
			fields = append(fields, zap.Error(err))
		}
		log.Info("request", fields...)
		return err
	}
}

// statusOf resolves the status that the error handler will send for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

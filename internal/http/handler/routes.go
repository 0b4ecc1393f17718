package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"notka/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Note routes are served under /notes and mirrored under /api/notes.
func RegisterRoutes(app *fiber.App, ping func(context.Context) error, svc service.NoteService) {
	app.Get("/", LivenessProbe())
	app.Get("/healthz", LivenessProbe())
	app.Get("/health", HealthCheck(ping))

	for _, prefix := range []string{"/notes", "/api/notes"} {
		g := app.Group(prefix)
		// the wildcard file route must win over /:id
		g.Get("/serve/*", ServeFile(svc))
		g.Get("/", ListNotes(svc))
		g.Post("/", CreateNote(svc))
		g.Get("/:id", GetNote(svc))
		g.Put("/:id", UpdateNote(svc))
		g.Delete("/:id", DeleteNote(svc))
		g.Get("/:id/file", ServeNoteFile(svc))
		g.Post("/:id/file", AttachFile(svc))
		g.Delete("/:id/file", DetachFile(svc))
	}
}

// HealthCheck reports whether the note store answers a ping.
//
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(ping func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process serves requests.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}

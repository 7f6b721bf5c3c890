package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-gradebook/internal/config"
	"github.com/noah-isme/gema-gradebook/internal/handler"
	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler    *handler.CourseHandler
	GradebookHandler *handler.GradebookHandler
	GradingHandler   *handler.GradingHandler
	AnswerHandler    *handler.AnswerHandler
	SeedHandler      *handler.SeedHandler
	JWTMiddleware    fiber.Handler
	DependencyChecks []handler.DependencyCheck
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DependencyChecks...))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	graders := middleware.RequireRole(models.CourseRoleTeacher, models.CourseRoleAdmin)

	if deps.CourseHandler != nil || deps.GradebookHandler != nil {
		courses := api.Group("/courses", jwtMiddleware, graders)
		if deps.GradebookHandler != nil {
			deps.GradebookHandler.Register(courses)
		}
		if deps.CourseHandler != nil {
			deps.CourseHandler.Register(courses)
		}
	}

	if deps.GradingHandler != nil {
		answers := api.Group("/answers", jwtMiddleware, graders,
			middleware.RateLimit("grading", cfg.GradingRateLimit, time.Minute))
		deps.GradingHandler.Register(answers)
	}

	if deps.AnswerHandler != nil {
		units := api.Group("/units", jwtMiddleware, middleware.RequireRole(models.CourseRoleStudent))
		deps.AnswerHandler.Register(units)
	}

	// Seeding is guarded by its own token rather than a user session.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/admin/seed"))
	}
}

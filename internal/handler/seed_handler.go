package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// SeedTokenHeader carries the shared seeding token.
const SeedTokenHeader = "X-Seed-Token"

// SeedHandler exposes tooling endpoints for bootstrapping courses.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(seeds service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: seeds,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/courses", h.course)
}

func (h *SeedHandler) course(c *fiber.Ctx) error {
	var payload dto.SeedCourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.SeedCourse(requestContext(c), c.Get(SeedTokenHeader), payload)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
		}
		switch {
		case errors.Is(err, service.ErrSeedDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
		case errors.Is(err, service.ErrSeedUnauthorized):
			return utils.SendError(c, fiber.StatusForbidden, "invalid token")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course seeded", resp)
}

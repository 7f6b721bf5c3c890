package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// GradingHandler records marks on answers.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(grading service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: grading,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register binds the grading routes under an answers group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:id/marks", h.recordMark)
	router.Get("/:id/marks", h.listMarks)
}

func (h *GradingHandler) recordMark(c *fiber.Ctx) error {
	answerID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid answer id")
	}

	var payload dto.MarkCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	mark, err := h.service.RecordMark(requestContext(c), answerID, payload, actorFromContext(c))
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
		}
		switch {
		case errors.Is(err, service.ErrScoreExceedsMax):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAnswerNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCourseGrader):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("answer_id", answerID).Msg("failed to record mark")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record mark")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "mark recorded", mark)
}

func (h *GradingHandler) listMarks(c *fiber.Ctx) error {
	answerID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid answer id")
	}

	marks, err := h.service.ListMarks(requestContext(c), answerID, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAnswerNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCourseGrader):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("answer_id", answerID).Msg("failed to list marks")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to list marks")
		}
	}

	return utils.SendSuccess(c, "marks", marks)
}

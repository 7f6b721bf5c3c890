package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// AnswerHandler lets students submit and review their answers.
type AnswerHandler struct {
	service service.AnswerService
	logger  zerolog.Logger
}

// NewAnswerHandler constructs an answer handler.
func NewAnswerHandler(answers service.AnswerService, logger zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		service: answers,
		logger:  logger.With().Str("component", "answer_handler").Logger(),
	}
}

// Register binds the answer routes under a units group.
func (h *AnswerHandler) Register(router fiber.Router) {
	router.Put("/:id/answer", h.submit)
	router.Get("/:id/answers", h.listMine)
}

func (h *AnswerHandler) submit(c *fiber.Ctx) error {
	unitID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid unit id")
	}

	var payload dto.AnswerSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	answer, err := h.service.Submit(requestContext(c), unitID, userIDFromContext(c), payload)
	if err != nil {
		return h.writeError(c, err)
	}

	return utils.SendSuccess(c, "answer saved", answer)
}

func (h *AnswerHandler) listMine(c *fiber.Ctx) error {
	unitID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid unit id")
	}

	answers, err := h.service.ListMine(requestContext(c), unitID, userIDFromContext(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return utils.SendSuccess(c, "answers", answers)
}

func (h *AnswerHandler) writeError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}
	switch {
	case errors.Is(err, service.ErrEmptyAnswer):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnitNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnitNotAnswerable):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNotCourseStudent):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("answer request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process answer")
	}
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// CourseHandler manages courses, their units and enrolments.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(courses service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: courses,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register binds the course routes under a courses group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/members", h.listMembers)
	router.Post("/:id/members", h.enroll)
	router.Get("/:id/units", h.listUnits)
	router.Post("/:id/units", h.createUnit)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	var query dto.CourseListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	courses, err := h.service.List(requestContext(c), query, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to list courses")
	}

	return utils.OK(c, courses, "courses", fiber.Map{"count": len(courses)})
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Create(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to create course")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.service.Get(requestContext(c), courseID, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to load course")
	}

	return utils.SendSuccess(c, "course", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Update(requestContext(c), courseID, payload, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to update course")
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	if err := h.service.Delete(requestContext(c), courseID, actorFromContext(c)); err != nil {
		return h.writeError(c, err, "failed to delete course")
	}

	return utils.SendSuccess(c, "course deleted", nil)
}

func (h *CourseHandler) listMembers(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	members, err := h.service.ListMembers(requestContext(c), courseID, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to list members")
	}

	return utils.SendSuccess(c, "members", members)
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.MemberCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	member, err := h.service.Enroll(requestContext(c), courseID, payload, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to enrol user")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user enrolled", member)
}

func (h *CourseHandler) listUnits(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	units, err := h.service.ListUnits(requestContext(c), courseID, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to list units")
	}

	return utils.SendSuccess(c, "units", units)
}

func (h *CourseHandler) createUnit(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.UnitCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	unit, err := h.service.CreateUnit(requestContext(c), courseID, payload, actorFromContext(c))
	if err != nil {
		return h.writeError(c, err, "failed to create unit")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "unit created", unit)
}

func (h *CourseHandler) writeError(c *fiber.Ctx, err error, message string) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotCourseGrader):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}

package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// CacheHeader reports whether a gradebook was served from the cache.
const CacheHeader = "X-Gradebook-Cache"

// GradebookHandler serves course gradebooks and their change streams.
type GradebookHandler struct {
	service   service.GradebookService
	events    service.GradebookEvents
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewGradebookHandler constructs a handler. events may be nil, which disables streaming.
func NewGradebookHandler(gradebooks service.GradebookService, events service.GradebookEvents, logger zerolog.Logger, keepAlive time.Duration) *GradebookHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &GradebookHandler{
		service:   gradebooks,
		events:    events,
		logger:    logger.With().Str("component", "gradebook_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the gradebook routes under a course group.
func (h *GradebookHandler) Register(router fiber.Router) {
	router.Get("/:id/gradebook", h.get)
	router.Get("/:id/gradebook/stream", h.stream)
}

func (h *GradebookHandler) get(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	ctx := requestContext(c)
	if err := h.service.Authorize(ctx, courseID, actorFromContext(c)); err != nil {
		return h.writeError(c, err)
	}

	gradebook, cacheHit, err := h.service.GetGradebook(ctx, courseID)
	if err != nil {
		return h.writeError(c, err)
	}

	if cacheHit {
		c.Set(CacheHeader, "HIT")
	} else {
		c.Set(CacheHeader, "MISS")
	}
	return utils.OK(c, gradebook, "gradebook", fiber.Map{"cache_hit": cacheHit})
}

func (h *GradebookHandler) stream(c *fiber.Ctx) error {
	if h.events == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "gradebook streaming disabled")
	}

	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	if err := h.service.Authorize(requestContext(c), courseID, actorFromContext(c)); err != nil {
		return h.writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, cleanup := h.events.Subscribe(courseID)
	logger := requestLogger(h.logger, c).With().Uint("course_id", courseID).Logger()
	keepAlive := h.keepAlive

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cleanup()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		// an initial comment lets clients confirm the subscription is live
		if err := writeKeepAlive(w); err != nil {
			return
		}

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeGradebookEvent(w, event); err != nil {
					logger.Debug().Err(err).Msg("gradebook stream closed")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					logger.Debug().Err(err).Msg("gradebook stream closed")
					return
				}
			}
		}
	})

	return nil
}

func (h *GradebookHandler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotCourseGrader):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to serve gradebook")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load gradebook")
	}
}

func writeGradebookEvent(w *bufio.Writer, event service.GradebookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: gradebook\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/observability"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

// DefaultMaxScore bounds the score a grader may assign.
const DefaultMaxScore = 100.0

// ErrAnswerNotFound indicates the answer was not located.
var ErrAnswerNotFound = errors.New("answer not found")

// ErrScoreExceedsMax indicates a grading score surpasses the maximum.
var ErrScoreExceedsMax = errors.New("score exceeds maximum")

// ErrNotCourseGrader indicates the actor does not teach the answer's course.
var ErrNotCourseGrader = errors.New("actor cannot grade this course")

// Actor is the authenticated user performing an action.
type Actor struct {
	ID   uint
	Role string
}

// GradingService records grading events.
type GradingService interface {
	RecordMark(ctx context.Context, answerID uint, payload dto.MarkCreateRequest, actor Actor) (dto.MarkResponse, error)
	// ListMarks returns the grading history of an answer, oldest first.
	ListMarks(ctx context.Context, answerID uint, actor Actor) ([]dto.MarkResponse, error)
}

type gradingService struct {
	answers     repository.AnswerRepository
	marks       repository.MarkRepository
	courses     repository.CourseRepository
	invalidator GradebookInvalidator
	events      GradebookEvents
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	maxScore    float64
}

// NewGradingService constructs the grading service. invalidator and events may be nil.
func NewGradingService(answers repository.AnswerRepository, marks repository.MarkRepository, courses repository.CourseRepository, invalidator GradebookInvalidator, events GradebookEvents, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		answers:     answers,
		marks:       marks,
		courses:     courses,
		invalidator: invalidator,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-gradebook/internal/service/grading"),
		now:         time.Now,
		maxScore:    DefaultMaxScore,
	}
}

func (s *gradingService) RecordMark(ctx context.Context, answerID uint, payload dto.MarkCreateRequest, actor Actor) (dto.MarkResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.record_mark", trace.WithAttributes(
		attribute.Int64("grading.answer_id", int64(answerID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.MarkResponse{}, err
	}

	score := *payload.Score
	if score > s.maxScore+1e-9 {
		span.RecordError(ErrScoreExceedsMax)
		span.SetStatus(codes.Error, "score_exceeds_max")
		return dto.MarkResponse{}, ErrScoreExceedsMax
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "answer_not_found")
			return dto.MarkResponse{}, ErrAnswerNotFound
		}
		span.SetStatus(codes.Error, "answer_lookup_failed")
		return dto.MarkResponse{}, err
	}

	courseID := answer.Unit.CourseID
	if err := authorizeGrader(ctx, s.courses, courseID, actor); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forbidden")
		return dto.MarkResponse{}, err
	}

	mark := models.Mark{
		AnswerID:  answer.ID,
		GraderID:  actor.ID,
		Score:     score,
		Comment:   strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment)),
		CreatedAt: s.now().UTC(),
	}
	if err := s.marks.Create(ctx, &mark); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark_create_failed")
		return dto.MarkResponse{}, err
	}

	observability.MarksRecorded().Inc()
	span.SetAttributes(attribute.Float64("grading.score", score))

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, courseID); err != nil {
			s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate gradebook after grading")
		}
	}

	if s.events != nil {
		event := GradebookEvent{
			Type:      EventMarkRecorded,
			CourseID:  courseID,
			UnitID:    answer.UnitID,
			AnswerID:  answer.ID,
			StudentID: answer.UserID,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("failed to publish mark event")
		}
	}

	return dto.NewMarkResponse(mark), nil
}

func (s *gradingService) ListMarks(ctx context.Context, answerID uint, actor Actor) ([]dto.MarkResponse, error) {
	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, err
	}

	if err := authorizeGrader(ctx, s.courses, answer.Unit.CourseID, actor); err != nil {
		return nil, err
	}

	marks, err := s.marks.ListByAnswer(ctx, answer.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MarkResponse, 0, len(marks))
	for _, mark := range marks {
		responses = append(responses, dto.NewMarkResponse(mark))
	}
	return responses, nil
}

// authorizeGrader lets platform admins through; everyone else must teach the course.
func authorizeGrader(ctx context.Context, courses repository.CourseRepository, courseID uint, actor Actor) error {
	if isPlatformAdmin(actor) {
		return nil
	}

	member, err := courses.GetMember(ctx, courseID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotCourseGrader
		}
		return err
	}

	switch member.Role {
	case models.CourseRoleTeacher, models.CourseRoleAdmin:
		return nil
	default:
		return ErrNotCourseGrader
	}
}

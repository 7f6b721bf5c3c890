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
	"github.com/noah-isme/gema-gradebook/internal/gradebook"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/observability"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

var (
	// ErrUnitNotFound indicates the unit does not exist.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrUnitNotAnswerable indicates the unit does not accept answers.
	ErrUnitNotAnswerable = errors.New("unit does not accept answers")
	// ErrNotCourseStudent indicates the user is not enrolled as a student.
	ErrNotCourseStudent = errors.New("user is not a student of this course")
	// ErrEmptyAnswer indicates nothing was left after sanitising the answer.
	ErrEmptyAnswer = errors.New("answer content empty after sanitization")
)

// AnswerService handles student submissions.
type AnswerService interface {
	Submit(ctx context.Context, unitID, studentID uint, payload dto.AnswerSubmitRequest) (dto.AnswerResponse, error)
	ListMine(ctx context.Context, unitID, studentID uint) ([]dto.AnswerResponse, error)
}

type answerService struct {
	units       repository.UnitRepository
	answers     repository.AnswerRepository
	courses     repository.CourseRepository
	invalidator GradebookInvalidator
	events      GradebookEvents
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAnswerService constructs the answer service. invalidator and events may be nil.
func NewAnswerService(units repository.UnitRepository, answers repository.AnswerRepository, courses repository.CourseRepository, invalidator GradebookInvalidator, events GradebookEvents, validate *validator.Validate, logger zerolog.Logger) AnswerService {
	return &answerService{
		units:       units,
		answers:     answers,
		courses:     courses,
		invalidator: invalidator,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "answer_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-gradebook/internal/service/answers"),
		now:         time.Now,
	}
}

func (s *answerService) Submit(ctx context.Context, unitID, studentID uint, payload dto.AnswerSubmitRequest) (dto.AnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "answers.submit", trace.WithAttributes(
		attribute.Int64("answers.unit_id", int64(unitID)),
		attribute.Int64("answers.student_id", int64(studentID)),
		attribute.Bool("answers.resubmit", payload.Resubmit),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.AnswerResponse{}, ErrEmptyAnswer
	}

	unit, err := s.enrolledUnit(ctx, unitID, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unit_rejected")
		return dto.AnswerResponse{}, err
	}
	if !unit.Answerable {
		span.SetStatus(codes.Error, "unit_not_answerable")
		return dto.AnswerResponse{}, ErrUnitNotAnswerable
	}

	now := s.now().UTC()
	kind := "new"
	var answer models.Answer

	if !payload.Resubmit {
		latest, err := s.answers.LatestByUnitAndUser(ctx, unitID, studentID)
		switch {
		case err == nil:
			answer = latest
			kind = "edit"
		case !errors.Is(err, gorm.ErrRecordNotFound):
			span.RecordError(err)
			return dto.AnswerResponse{}, err
		}
	}

	if kind == "edit" {
		answer.Content = content
		answer.UpdatedAt = now
		if err := s.answers.Update(ctx, &answer); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "answer_update_failed")
			return dto.AnswerResponse{}, err
		}
	} else {
		answer = models.Answer{
			UnitID:    unitID,
			UserID:    studentID,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.answers.Create(ctx, &answer); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "answer_create_failed")
			return dto.AnswerResponse{}, err
		}
	}

	observability.AnswersSubmitted().WithLabelValues(kind).Inc()
	span.SetAttributes(attribute.String("answers.kind", kind))

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, unit.CourseID); err != nil {
			s.logger.Warn().Err(err).Uint("course_id", unit.CourseID).Msg("failed to invalidate gradebook after submission")
		}
	}

	if s.events != nil {
		event := GradebookEvent{
			Type:      EventAnswerSubmitted,
			CourseID:  unit.CourseID,
			UnitID:    unitID,
			AnswerID:  answer.ID,
			StudentID: studentID,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("failed to publish answer event")
		}
	}

	return newAnswerResponse(answer), nil
}

func (s *answerService) ListMine(ctx context.Context, unitID, studentID uint) ([]dto.AnswerResponse, error) {
	if _, err := s.enrolledUnit(ctx, unitID, studentID); err != nil {
		return nil, err
	}

	answers, err := s.answers.ListByUnitAndUser(ctx, unitID, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		responses = append(responses, newAnswerResponse(answer))
	}
	return responses, nil
}

func (s *answerService) enrolledUnit(ctx context.Context, unitID, studentID uint) (models.Unit, error) {
	unit, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Unit{}, ErrUnitNotFound
		}
		return models.Unit{}, err
	}

	member, err := s.courses.GetMember(ctx, unit.CourseID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Unit{}, ErrNotCourseStudent
		}
		return models.Unit{}, err
	}
	if !member.IsStudent() {
		return models.Unit{}, ErrNotCourseStudent
	}

	return unit, nil
}

// newAnswerResponse resolves a single answer on its own, so Mark is its latest mark and
// IsStale tells whether that mark predates the last edit.
func newAnswerResponse(answer models.Answer) dto.AnswerResponse {
	res := gradebook.ResolveLatestMark([]gradebook.Answer{toGradebookAnswer(answer)})
	return dto.NewAnswerResponse(answer, res.Mark, res.IsStale)
}

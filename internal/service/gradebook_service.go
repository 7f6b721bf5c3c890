package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/gradebook"
	"github.com/noah-isme/gema-gradebook/internal/observability"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

// ErrCourseNotFound indicates the requested course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// GradebookGenerationKey is the redis counter bumped on every invalidation of a course.
func GradebookGenerationKey(courseID uint) string {
	return fmt.Sprintf("gradebook:course:%d:generation", courseID)
}

// GradebookCacheKey is the redis key holding the gradebook rendered at generation.
// Entries of older generations are never read again and expire with their TTL.
func GradebookCacheKey(courseID uint, generation int64) string {
	return fmt.Sprintf("gradebook:course:%d:v%d", courseID, generation)
}

// GradebookInvalidator drops cached gradebooks after answers or marks change.
type GradebookInvalidator interface {
	Invalidate(ctx context.Context, courseID uint) error
}

// GradebookService serves course gradebooks.
type GradebookService interface {
	GradebookInvalidator
	GetGradebook(ctx context.Context, courseID uint) (dto.GradebookResponse, bool, error)
	// Authorize returns ErrNotCourseGrader unless the actor may view the course gradebook.
	Authorize(ctx context.Context, courseID uint, actor Actor) error
}

type gradebookService struct {
	courses    repository.CourseRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	comparator gradebook.Comparator
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewGradebookService builds the gradebook service. cache may be nil; comparator may be nil
// to use the default collation order.
func NewGradebookService(courses repository.CourseRepository, cache *redis.Client, ttl time.Duration, comparator gradebook.Comparator, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		courses:    courses,
		cache:      cache,
		cacheTTL:   ttl,
		comparator: comparator,
		logger:     logger.With().Str("component", "gradebook_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-gradebook/internal/service/gradebook"),
	}
}

func (s *gradebookService) GetGradebook(ctx context.Context, courseID uint) (dto.GradebookResponse, bool, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.build", trace.WithAttributes(
		attribute.Int64("gradebook.course_id", int64(courseID)),
	))
	defer span.End()

	var cacheKey string
	if s.cache != nil {
		generation, err := s.generation(ctx, courseID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read gradebook generation")
		} else {
			cacheKey = GradebookCacheKey(courseID, generation)
		}
	}

	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GradebookResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("course_id", courseID).Msg("gradebook cache hit")
				span.SetAttributes(attribute.Bool("gradebook.cache_hit", true))
				observability.GradebookBuilds().WithLabelValues("cache").Inc()
				return response, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read gradebook cache")
		}
	}

	start := time.Now()
	course, err := s.courses.GetGradebookSnapshot(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "course_not_found")
			return dto.GradebookResponse{}, false, ErrCourseNotFound
		}
		span.SetStatus(codes.Error, "snapshot_failed")
		return dto.GradebookResponse{}, false, fmt.Errorf("load gradebook snapshot: %w", err)
	}

	var opts []gradebook.Option
	if s.comparator != nil {
		opts = append(opts, gradebook.WithComparator(s.comparator))
	}

	table, err := gradebook.NewMatrix(toGradebookCourse(course), opts...).Table()
	if err != nil {
		s.logger.Error().Err(err).Uint("course_id", courseID).Msg("inconsistent gradebook snapshot")
		span.RecordError(err)
		span.SetStatus(codes.Error, "inconsistent_snapshot")
		return dto.GradebookResponse{}, false, fmt.Errorf("compute gradebook: %w", err)
	}

	response := dto.NewGradebookResponse(table)
	observability.GradebookBuildDuration().Observe(time.Since(start).Seconds())
	observability.GradebookBuilds().WithLabelValues("computed").Inc()
	span.SetAttributes(
		attribute.Bool("gradebook.cache_hit", false),
		attribute.Int("gradebook.rows", len(response.Rows)),
		attribute.Int("gradebook.columns", len(response.Columns)),
	)

	// The snapshot was read under cacheKey's generation; an invalidation racing with the build
	// moves readers to a newer key, so this entry is never served.
	if cacheKey != "" {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gradebook cache")
			}
		}
	}

	return response, false, nil
}

func (s *gradebookService) Authorize(ctx context.Context, courseID uint, actor Actor) error {
	return authorizeGrader(ctx, s.courses, courseID, actor)
}

func (s *gradebookService) Invalidate(ctx context.Context, courseID uint) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.Incr(ctx, GradebookGenerationKey(courseID)).Err(); err != nil {
		return fmt.Errorf("invalidate gradebook cache: %w", err)
	}
	observability.GradebookInvalidations().WithLabelValues("local").Inc()
	return nil
}

func (s *gradebookService) generation(ctx context.Context, courseID uint) (int64, error) {
	generation, err := s.cache.Get(ctx, GradebookGenerationKey(courseID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

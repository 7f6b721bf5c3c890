package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/gradebook"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

func TestGradebookServiceComputesAndCaches(t *testing.T) {
	f := newGradebookFixture(t)
	base := time.Now().UTC().Add(-time.Hour)

	first := f.answer(t, f.graphs, f.bob, base)
	f.mark(t, first, 5, base.Add(time.Minute))
	f.answer(t, f.graphs, f.bob, base.Add(2*time.Minute))
	sorting := f.answer(t, f.sorting, f.bob, base)
	f.mark(t, sorting, 9.7, base.Add(time.Minute))

	svc := NewGradebookService(repository.NewCourseRepository(f.db), f.redis, time.Minute, nil, zerolog.Nop())
	ctx := context.Background()

	response, cacheHit, err := svc.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Equal(t, "Algorithms", response.Title)

	require.Len(t, response.Students, 2)
	require.Equal(t, "alice", response.Students[0].DisplayName)
	require.Equal(t, "Bob", response.Students[1].DisplayName)

	require.Len(t, response.Columns, 3)
	require.Equal(t, "Graphs", response.Columns[0].Title)
	require.Equal(t, "Sorting", response.Columns[1].Title)
	require.Equal(t, dto.SummaryColumnID, response.Columns[2].ID)
	require.True(t, response.Columns[2].Summary)
	require.Nil(t, response.Columns[2].UnitID)

	alice := response.Rows[0]
	require.Equal(t, f.alice.ID, alice.StudentID)
	require.False(t, alice.Cells[0].HasAnswer)
	require.Nil(t, alice.Cells[0].Mark)
	require.Equal(t, int64(0), *alice.Cells[2].Mark)
	require.True(t, alice.Cells[2].IsStale)

	bob := response.Rows[1]
	require.Equal(t, int64(5), *bob.Cells[0].Mark)
	require.True(t, bob.Cells[0].IsStale, "resubmission invalidates the graphs mark")
	require.Equal(t, int64(9), *bob.Cells[1].Mark)
	require.False(t, bob.Cells[1].IsStale)
	require.Equal(t, int64(8), *bob.Cells[2].Mark)
	require.InDelta(t, 8.525, *bob.Cells[2].Score, 1e-9)
	require.True(t, f.mini.Exists(GradebookCacheKey(f.course.ID, 0)))

	// Change the database; the cached response must be served unchanged.
	require.NoError(t, f.db.Model(&f.graphs).Update("title", "Changed").Error)

	cached, cacheHit, err := svc.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.True(t, cacheHit)
	require.Equal(t, response, cached)

	require.NoError(t, svc.Invalidate(ctx, f.course.ID))
	generation, err := f.mini.Get(GradebookGenerationKey(f.course.ID))
	require.NoError(t, err)
	require.Equal(t, "1", generation)

	fresh, cacheHit, err := svc.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Equal(t, "Changed", fresh.Columns[0].Title)
	require.True(t, f.mini.Exists(GradebookCacheKey(f.course.ID, 1)))
}

func TestGradebookServiceWithoutCache(t *testing.T) {
	f := newGradebookFixture(t)
	svc := NewGradebookService(repository.NewCourseRepository(f.db), nil, time.Minute, gradebook.Ordinal, zerolog.Nop())

	response, cacheHit, err := svc.GetGradebook(context.Background(), f.course.ID)
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Equal(t, "Bob", response.Students[0].DisplayName, "ordinal order puts upper case first")
	require.NoError(t, svc.Invalidate(context.Background(), f.course.ID))
}

func TestGradebookServiceCourseNotFound(t *testing.T) {
	f := newGradebookFixture(t)
	svc := NewGradebookService(repository.NewCourseRepository(f.db), f.redis, time.Minute, nil, zerolog.Nop())

	_, _, err := svc.GetGradebook(context.Background(), f.course.ID+100)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestGradebookServiceIgnoresCorruptCacheEntry(t *testing.T) {
	f := newGradebookFixture(t)
	require.NoError(t, f.mini.Set(GradebookCacheKey(f.course.ID, 0), "{not json"))

	svc := NewGradebookService(repository.NewCourseRepository(f.db), f.redis, time.Minute, nil, zerolog.Nop())
	response, cacheHit, err := svc.GetGradebook(context.Background(), f.course.ID)
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Len(t, response.Rows, 2)
}

func TestGradebookServiceAuthorize(t *testing.T) {
	f := newGradebookFixture(t)
	svc := NewGradebookService(repository.NewCourseRepository(f.db), nil, time.Minute, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, f.course.ID, Actor{ID: f.teacher.ID, Role: "teacher"}))
	require.NoError(t, svc.Authorize(ctx, f.course.ID, Actor{ID: 999, Role: "admin"}))
	require.ErrorIs(t, svc.Authorize(ctx, f.course.ID, Actor{ID: f.bob.ID, Role: "teacher"}), ErrNotCourseGrader)
	require.ErrorIs(t, svc.Authorize(ctx, f.course.ID+1, Actor{ID: f.teacher.ID, Role: "teacher"}), ErrNotCourseGrader)
}

// invalidatingCourses invalidates the gradebook right after the snapshot is loaded, the way a
// concurrent grading request would.
type invalidatingCourses struct {
	repository.CourseRepository
	onSnapshot func()
}

func (r *invalidatingCourses) GetGradebookSnapshot(ctx context.Context, courseID uint) (models.Course, error) {
	course, err := r.CourseRepository.GetGradebookSnapshot(ctx, courseID)
	if r.onSnapshot != nil {
		r.onSnapshot()
		r.onSnapshot = nil
	}
	return course, err
}

func TestGradebookServiceDoesNotCacheSnapshotOverlappingInvalidation(t *testing.T) {
	f := newGradebookFixture(t)
	base := time.Now().UTC().Add(-time.Hour)
	answer := f.answer(t, f.sorting, f.bob, base)

	courses := &invalidatingCourses{CourseRepository: repository.NewCourseRepository(f.db)}
	svc := NewGradebookService(courses, f.redis, time.Minute, nil, zerolog.Nop())
	ctx := context.Background()

	courses.onSnapshot = func() {
		f.mark(t, answer, 7, base.Add(time.Minute))
		require.NoError(t, svc.Invalidate(ctx, f.course.ID))
	}

	before, cacheHit, err := svc.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Nil(t, before.Rows[1].Cells[1].Mark, "built from the pre-mark snapshot")

	after, cacheHit, err := svc.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.False(t, cacheHit, "the racing build must not be served")
	require.NotNil(t, after.Rows[1].Cells[1].Mark)
	require.Equal(t, int64(7), *after.Rows[1].Cells[1].Mark)

	cached, cacheHit, err := svc.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.True(t, cacheHit)
	require.Equal(t, after, cached)
}

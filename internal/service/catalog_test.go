package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
	"github.com/sakif/edtech-platform/internal/repository/sqlite"
)

// The catalogue services are thin; they are exercised against a real
// in-memory database rather than one more set of fakes.
func newCatalogDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// =========================================================================
// COURSES
// =========================================================================

func TestCourseService_CreateUpdateKeepsSlug(t *testing.T) {
	svc := NewCourseService(newCatalogDB(t).Courses(), quietLogger())
	ctx := context.Background()

	c, err := svc.Create(ctx, &model.Course{
		Title:    "Go for Beginners",
		Category: " programming ",
		Modules: []model.CourseModule{{
			Title:  "Basics",
			Topics: []model.CourseTopic{{Title: "Hello, world"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "go-for-beginners", c.Slug)
	assert.Equal(t, "programming", c.Category)

	twin, err := svc.Create(ctx, &model.Course{Title: "Go for beginners"})
	require.NoError(t, err)
	assert.NotEqual(t, c.Slug, twin.Slug)

	updated, err := svc.Update(ctx, c.ID, &model.Course{Title: "Go, Renamed", Category: "programming"})
	require.NoError(t, err)
	assert.Equal(t, "go-for-beginners", updated.Slug)
	assert.Empty(t, updated.Modules)

	list, err := svc.List(ctx, "programming", repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCourseService_Validation(t *testing.T) {
	svc := NewCourseService(newCatalogDB(t).Courses(), quietLogger())
	ctx := context.Background()

	for name, c := range map[string]*model.Course{
		"no title":        {Title: " "},
		"untitled topic":  {Title: "X", Modules: []model.CourseModule{{Title: "M", Topics: []model.CourseTopic{{}}}}},
		"untitled module": {Title: "X", Modules: []model.CourseModule{{}}},
	} {
		_, err := svc.Create(ctx, c)
		assert.ErrorIs(t, err, apperror.ErrValidation, name)
	}
}

// =========================================================================
// GOODIES
// =========================================================================

func TestGoodieService(t *testing.T) {
	svc := NewGoodieService(newCatalogDB(t).Goodies(), quietLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.Goodie{Name: "Free lunch"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.Create(ctx, &model.Goodie{Name: "Mug", Price: 100, Stock: -1})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	mug, err := svc.Create(ctx, &model.Goodie{Name: "Mug", Price: 300, Stock: 5, Category: "kitchen"})
	require.NoError(t, err)
	tee, err := svc.Create(ctx, &model.Goodie{Name: "Tee", CoinPrice: 50, Stock: 5, IsPopular: true, Category: "wear"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, tee.ID, all[0].ID, "popular goodies come first")

	updated, err := svc.Update(ctx, mug.ID, &model.Goodie{Name: "Big Mug", Price: 350, Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, mug.ID, updated.ID)

	require.NoError(t, svc.Delete(ctx, mug.ID))
	_, err = svc.Get(ctx, mug.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// QUESTIONS AND WORKSHOPS
// =========================================================================

func TestQuestionService_NormalisesDifficulty(t *testing.T) {
	svc := NewQuestionService(newCatalogDB(t).Questions(), quietLogger())
	ctx := context.Background()

	q, err := svc.Create(ctx, &model.DSAQuestion{Question: "Two Sum", Topic: "array", Difficulty: "easy"})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyEasy, q.Difficulty)

	_, err = svc.Create(ctx, &model.DSAQuestion{Question: "X", Topic: "array", Difficulty: "extreme"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	list, err := svc.List(ctx, model.QuestionFilter{Difficulty: "EASY"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWorkshopService(t *testing.T) {
	svc := NewWorkshopService(newCatalogDB(t).Workshops(), quietLogger())
	ctx := context.Background()

	w, err := svc.Create(ctx, "Intro to Go", " go-101 ")
	require.NoError(t, err)
	assert.Equal(t, "GO-101", w.Code)

	_, err = svc.Create(ctx, "Again", "GO-101")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Create(ctx, "Bad", "a b")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, svc.Delete(ctx, w.ID))
	list, _ := svc.List(ctx)
	assert.Empty(t, list)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-course-enroll/internal/domain"
	"go-course-enroll/internal/repo"
)

func newCourses(t *testing.T) (*Courses, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Course{}))
	// cache 为 nil 时直接打库
	return NewCourses(repo.NewCourseRepo(db), nil, 0), db
}

func TestCourseCreate(t *testing.T) {
	svc, _ := newCourses(t)

	t.Run("missing title", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "admin1", CourseInput{Category: "go"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ok", func(t *testing.T) {
		c, err := svc.Create(context.Background(), "admin1", CourseInput{
			Title: "Go Basics", Category: "go", Price: 19.99,
		})
		require.NoError(t, err)
		assert.Len(t, c.ID, 32)
		assert.Equal(t, "admin1", c.CreatedBy)

		got, err := svc.Get(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go Basics", got.Title)
	})
}

func TestCourseGetNotFound(t *testing.T) {
	svc, _ := newCourses(t)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseList(t *testing.T) {
	svc, _ := newCourses(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), "admin1", CourseInput{
			Title: fmt.Sprintf("Go Course %d", i), Category: "go",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), "admin1", CourseInput{
		Title: "Rust Course", Category: "rust",
	})
	require.NoError(t, err)

	t.Run("by category", func(t *testing.T) {
		items, total, err := svc.List(context.Background(), 1, 20, "go", "")
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, items, 3)
	})

	t.Run("by title search", func(t *testing.T) {
		items, total, err := svc.List(context.Background(), 1, 20, "", "Rust")
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "Rust Course", items[0].Title)
	})

	t.Run("pagination clamps", func(t *testing.T) {
		items, total, err := svc.List(context.Background(), 0, -5, "", "")
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, items, 4)
	})

	t.Run("second page", func(t *testing.T) {
		items, total, err := svc.List(context.Background(), 2, 3, "", "")
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, items, 1)
	})
}

func TestCourseUpdate(t *testing.T) {
	svc, _ := newCourses(t)
	c, err := svc.Create(context.Background(), "admin1", CourseInput{Title: "Go Basics", Price: 10})
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(context.Background(), "missing", CourseInput{Title: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("partial", func(t *testing.T) {
		got, err := svc.Update(context.Background(), c.ID, CourseInput{Price: 25})
		require.NoError(t, err)
		assert.Equal(t, "Go Basics", got.Title)
		assert.Equal(t, 25.0, got.Price)
	})
}

func TestCourseDelete(t *testing.T) {
	svc, db := newCourses(t)
	c, err := svc.Create(context.Background(), "admin1", CourseInput{Title: "Go Basics"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), c.ID))

	_, err = svc.Get(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 软删：行还在，带 deleted_at
	var n int64
	require.NoError(t, db.Unscoped().Model(&domain.Course{}).Where("id = ?", c.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	assert.ErrorIs(t, svc.Delete(context.Background(), c.ID), ErrNotFound)
}

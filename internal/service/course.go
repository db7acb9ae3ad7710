package service

import (
	"context"
	"fmt"
	"time"

	"go-course-enroll/internal/core/cache"
	"go-course-enroll/internal/domain"
	"go-course-enroll/pkg/utils"
)

// Courses 课程目录。详情页走 redis 读穿缓存，写路径主动失效。
type Courses struct {
	courses domain.CourseRepository
	cache   *cache.Cache // 可为 nil（本地 / 测试）
	ttl     time.Duration
}

func NewCourses(courses domain.CourseRepository, c *cache.Cache, ttl time.Duration) *Courses {
	return &Courses{courses: courses, cache: c, ttl: ttl}
}

func courseKey(id string) string { return "course:" + id }

type CourseInput struct {
	Title       string
	Description string
	Category    string
	Price       float64
	Thumbnail   string
}

func (s *Courses) Create(ctx context.Context, createdBy string, in CourseInput) (*domain.Course, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	c := &domain.Course{
		ID:          utils.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Thumbnail:   in.Thumbnail,
		CreatedBy:   createdBy,
	}
	if err := s.courses.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Courses) Get(ctx context.Context, id string) (*domain.Course, error) {
	load := func(ctx context.Context) (*domain.Course, error) {
		c, err := s.courses.FindByID(id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: course not found", ErrNotFound)
		}
		return c, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, courseKey(id), s.ttl, load)
}

func (s *Courses) List(ctx context.Context, page, limit int, category, q string) ([]domain.Course, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.courses.List((page-1)*limit, limit, category, q)
}

func (s *Courses) Update(ctx context.Context, id string, in CourseInput) (*domain.Course, error) {
	c, err := s.courses.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: course not found", ErrNotFound)
	}
	if in.Title != "" {
		c.Title = in.Title
	}
	if in.Description != "" {
		c.Description = in.Description
	}
	if in.Category != "" {
		c.Category = in.Category
	}
	if in.Price > 0 {
		c.Price = in.Price
	}
	if in.Thumbnail != "" {
		c.Thumbnail = in.Thumbnail
	}
	if err := s.courses.Update(c); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, courseKey(id))
	}
	return c, nil
}

func (s *Courses) Delete(ctx context.Context, id string) error {
	c, err := s.courses.FindByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: course not found", ErrNotFound)
	}
	if err := s.courses.SoftDelete(id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, courseKey(id))
	}
	return nil
}

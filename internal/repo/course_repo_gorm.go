package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-course-enroll/internal/domain"
)

type CourseRepo struct{ db *gorm.DB }

func NewCourseRepo(db *gorm.DB) *CourseRepo { return &CourseRepo{db: db} }

func (r *CourseRepo) Create(c *domain.Course) error { return r.db.Create(c).Error }

func (r *CourseRepo) FindByID(id string) (*domain.Course, error) {
	var c domain.Course
	err := r.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *CourseRepo) List(offset, limit int, category, q string) ([]domain.Course, int64, error) {
	tx := r.db.Model(&domain.Course{})
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	if s := strings.TrimSpace(q); s != "" {
		tx = tx.Where("title LIKE ?", "%"+s+"%")
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var cs []domain.Course
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&cs).Error; err != nil {
		return nil, 0, err
	}
	return cs, total, nil
}

func (r *CourseRepo) Update(c *domain.Course) error { return r.db.Save(c).Error }

func (r *CourseRepo) SoftDelete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Course{}).Error
}

package domain

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID          string  `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Title       string  `gorm:"size:191;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Category    string  `gorm:"size:64;index" json:"category"`
	Price       float64 `json:"price"`
	Thumbnail   string  `gorm:"size:255" json:"thumbnail"`
	CreatedBy   string  `gorm:"size:32;index" json:"created_by"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string { return "courses" }

type CourseRepository interface {
	Create(c *Course) error
	FindByID(id string) (*Course, error)
	List(offset, limit int, category, q string) ([]Course, int64, error)
	Update(c *Course) error
	SoftDelete(id string) error
}

package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentActive    = "active"
	EnrollmentWithdrawn = "withdrawn"
)

// Enrollment 用户与课程的关联记录，(user_id, course_id) 唯一
type Enrollment struct {
	ID       string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	UserID   string `gorm:"size:32;not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID string `gorm:"size:32;not null;uniqueIndex:idx_user_course" json:"course_id"`
	Status   string `gorm:"size:16;not null;default:active" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Enrollment) TableName() string { return "enrollments" }

package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "Admin" // 解锁课程管理操作
)

type User struct {
	ID           string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Email        string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	FirstName    string `gorm:"size:64;not null" json:"first_name"`
	LastName     string `gorm:"size:64" json:"last_name"`
	Phone        string `gorm:"size:32" json:"phone_number"`
	ProfilePic   string `gorm:"size:255" json:"profile_pic"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Role         string `gorm:"size:16;not null;default:user" json:"role"`

	// 重置密码：存随机 nonce 的 sha256，明文只出现在邮件里
	ResetPasswordToken   string     `gorm:"size:64;index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	Create(u *User) error
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	FindByResetToken(tokenHash string) (*User, error)
	Update(u *User) error
	UpdateFields(id string, fields map[string]any) error
	List(offset, limit int, q string, withDeleted bool) ([]User, int64, error)
	SoftDelete(id string) error
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-course-enroll/internal/core/auth"
	"go-course-enroll/internal/domain"
	"go-course-enroll/internal/transport/http/ez"
	mdw "go-course-enroll/internal/transport/http/middleware"
)

// EnrollmentModule 选课记录。归属者视角的 CRUD 走通用 Crud，
// 管理端按课程查名单单独挂 Action。
type EnrollmentModule struct {
	DB    *gorm.DB
	Jwter *auth.JWTer
}

func NewEnrollmentModule(db *gorm.DB, jwter *auth.JWTer) *EnrollmentModule {
	return &EnrollmentModule{DB: db, Jwter: jwter}
}

func (m *EnrollmentModule) MountAPI(api *gin.RouterGroup) {
	guarded := api.Group("", mdw.AuthJWT(m.Jwter, ""))

	ez.Crud(ez.CrudConfig[domain.Enrollment]{
		DB:          m.DB,
		Group:       guarded,
		Path:        "/enrollment",
		New:         func() *domain.Enrollment { return &domain.Enrollment{Status: domain.EnrollmentActive} },
		OwnerField:  "UserID",
		AllowCreate: true,
		AllowList:   true,
		AllowGet:    true,
		AllowDelete: true, // 退课 = 删除自己的记录
		OrderBy:     "created_at DESC",
		Hooks: ez.CrudHooks[domain.Enrollment]{
			BeforeCreate: func(c *gin.Context, tx *gorm.DB, e *domain.Enrollment) error {
				if e.CourseID == "" {
					return errors.New("course_id is required")
				}
				var course domain.Course
				if err := tx.First(&course, "id = ?", e.CourseID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return errors.New("course not found")
					}
					return err
				}
				return nil
			},
		},
	})
}

// MountAdmin GET /admin/v1/enrollments?course_id=xxx 按课程查名单
func (m *EnrollmentModule) MountAdmin(admin *gin.RouterGroup) {
	ezAdm := ez.New(admin)

	type listQ struct {
		CourseID string `form:"course_id" binding:"required"`
		Offset   int    `form:"offset,default=0"`
		Limit    int    `form:"limit,default=20"`
	}
	type listOut struct {
		Total int64               `json:"total"`
		Items []domain.Enrollment `json:"items"`
	}

	ez.RegisterAction[listQ, listOut](ezAdm, m.DB, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/enrollments",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			q := tx.Model(&domain.Enrollment{}).Where("course_id = ?", in.CourseID)

			var total int64
			if err := q.Count(&total).Error; err != nil {
				return listOut{}, ez.Internal("count enrollments failed", err)
			}
			var items []domain.Enrollment
			if err := q.Order("created_at DESC").Limit(in.Limit).Offset(in.Offset).Find(&items).Error; err != nil {
				return listOut{}, ez.Internal("list enrollments failed", err)
			}
			return listOut{Total: total, Items: items}, nil
		},
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-course-enroll/internal/core/auth"
	"go-course-enroll/internal/domain"
	"go-course-enroll/internal/service"
	"go-course-enroll/internal/transport/http/ez"
	mdw "go-course-enroll/internal/transport/http/middleware"
)

// CourseModule 课程目录。读公开，写要求 Admin 角色。通过 router 注册表自动挂载。
type CourseModule struct {
	DB    *gorm.DB
	Svc   *service.Courses
	Jwter *auth.JWTer
}

func NewCourseModule(db *gorm.DB, svc *service.Courses, jwter *auth.JWTer) *CourseModule {
	return &CourseModule{DB: db, Svc: svc, Jwter: jwter}
}

type courseListQ struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Category string `form:"category"`
	Q        string `form:"q"` // 按标题模糊搜
}

type courseListOut struct {
	Total int64           `json:"total"`
	Items []domain.Course `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type courseIn struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
}

func (m *CourseModule) MountAPI(api *gin.RouterGroup) {
	ezPub := ez.New(api)

	// GET /course/get-courses
	ez.RegisterAction[courseListQ, courseListOut](ezPub, m.DB, ez.Action[courseListQ, courseListOut]{
		Method: http.MethodGet,
		Path:   "/course/get-courses",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *courseListQ) (courseListOut, error) {
			items, total, err := m.Svc.List(c, in.Page, in.Limit, in.Category, in.Q)
			if err != nil {
				return courseListOut{}, ez.Internal("list courses failed", err)
			}
			return courseListOut{Total: total, Items: items, Page: in.Page, Limit: in.Limit}, nil
		},
	})

	// GET /course/get-course/:id（走缓存）
	ez.RegisterAction[struct{}, any](ezPub, m.DB, ez.Action[struct{}, any]{
		Method: http.MethodGet,
		Path:   "/course/get-course/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (any, error) {
			course, err := m.Svc.Get(c, c.Param("id"))
			if err != nil {
				return nil, mapErr(err)
			}
			return course, nil
		},
	})

	// 写操作要求登录且角色为 Admin
	guarded := api.Group("", mdw.AuthJWT(m.Jwter, ""))
	m.mountMutations(ez.New(guarded), []string{domain.RoleAdmin})
}

// MountAdmin 管理端分组本身已校验 Admin 角色，不再重复限定
func (m *CourseModule) MountAdmin(admin *gin.RouterGroup) {
	ezAdm := ez.New(admin)
	m.mountMutations(ezAdm, nil)

	ez.RegisterAction[courseListQ, courseListOut](ezAdm, m.DB, ez.Action[courseListQ, courseListOut]{
		Method: http.MethodGet,
		Path:   "/courses",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *courseListQ) (courseListOut, error) {
			items, total, err := m.Svc.List(c, in.Page, in.Limit, in.Category, in.Q)
			if err != nil {
				return courseListOut{}, ez.Internal("list courses failed", err)
			}
			return courseListOut{Total: total, Items: items, Page: in.Page, Limit: in.Limit}, nil
		},
	})
}

func (m *CourseModule) mountMutations(e ez.EZ, roles []string) {
	ez.RegisterAction[courseIn, any](e, m.DB, ez.Action[courseIn, any]{
		Method: http.MethodPost,
		Path:   "/course/create-course",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  roles,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *gorm.DB, in *courseIn) (any, error) {
			course, err := m.Svc.Create(c, c.GetString("userId"), service.CourseInput{
				Title:       in.Title,
				Description: in.Description,
				Category:    in.Category,
				Price:       in.Price,
				Thumbnail:   in.Thumbnail,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return course, nil
		},
	})

	ez.RegisterAction[courseIn, any](e, m.DB, ez.Action[courseIn, any]{
		Method: http.MethodPut,
		Path:   "/course/update-course/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  roles,
		Handler: func(c *gin.Context, _ *gorm.DB, in *courseIn) (any, error) {
			course, err := m.Svc.Update(c, c.Param("id"), service.CourseInput{
				Title:       in.Title,
				Description: in.Description,
				Category:    in.Category,
				Price:       in.Price,
				Thumbnail:   in.Thumbnail,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return course, nil
		},
	})

	ez.RegisterAction[struct{}, gin.H](e, m.DB, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/course/delete-course/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  roles,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			if err := m.Svc.Delete(c, c.Param("id")); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"id": c.Param("id")}, nil
		},
	})
}

package router

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-course-enroll/internal/core/auth"
	"go-course-enroll/internal/domain"
	"go-course-enroll/internal/repo"
	"go-course-enroll/internal/transport/http/ez"
	mdw "go-course-enroll/internal/transport/http/middleware"
)

// NewAdminEngine 管理端引擎，统一要求 Admin 角色
func NewAdminEngine(l *zap.Logger, db *gorm.DB, jwter *auth.JWTer) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdmin))

	// 注册表里的模块（课程管理 / 选课名单）
	MountAllAdmin(admin)

	// 用户管理
	mountUserAdminActions(admin, db)

	return r
}

// mountUserAdminActions 用户列表 / 封禁
func mountUserAdminActions(admin *gin.RouterGroup, db *gorm.DB) {
	ezAdm := ez.New(admin)
	users := repo.NewUserRepo(db)

	type listQ struct {
		Offset      int    `form:"offset,default=0"`
		Limit       int    `form:"limit,default=20"`
		Q           string `form:"q"`            // 按 email / 姓名模糊搜
		WithDeleted bool   `form:"with_deleted"` // 是否包含已封禁
	}
	type row struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}

	ez.RegisterAction[listQ, listOut](ezAdm, db, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			us, total, err := users.List(in.Offset, in.Limit, in.Q, in.WithDeleted)
			if err != nil {
				return listOut{}, ez.Internal("list users failed", err)
			}
			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role,
				})
			}
			return out, nil
		},
	})

	// 封禁（软删）
	ez.RegisterAction[struct{}, gin.H](ezAdm, db, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, ez.BadRequest("missing id")
			}
			res := tx.Where("id = ?", id).Delete(&domain.User{})
			if res.Error != nil {
				return nil, ez.Internal("ban user failed", res.Error)
			}
			if res.RowsAffected == 0 {
				return nil, ez.NotFound("user not found")
			}
			return gin.H{"id": id}, nil
		},
	})
}

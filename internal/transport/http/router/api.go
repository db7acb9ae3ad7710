package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-course-enroll/internal/core/auth"
	"go-course-enroll/internal/service"
	"go-course-enroll/internal/transport/http/handler"
	mdw "go-course-enroll/internal/transport/http/middleware"
)

// NewAPIEngine 用户端引擎。账号生命周期直接挂载，
// 课程 / 选课等模块走注册表（cmd 里 Register 后由 MountAllAPI 统一挂）。
func NewAPIEngine(l *zap.Logger, db *gorm.DB, jwter *auth.JWTer, account *service.Account) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 注册表里的模块（课程 / 选课）
	MountAllAPI(api)

	// 账号生命周期：公开 + 鉴权两个分组
	authUser := api.Group("")
	authUser.Use(mdw.AuthJWT(jwter, ""))
	handler.NewUserHandler(db, account).Mount(api, authUser)

	return r
}

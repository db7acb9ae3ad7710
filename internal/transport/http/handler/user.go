package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-course-enroll/internal/service"
	"go-course-enroll/internal/transport/http/ez"
)

// UserHandler 账号生命周期的 HTTP 面。所有校验类失败按原接口约定报 400。
type UserHandler struct {
	DB  *gorm.DB
	Svc *service.Account
}

func NewUserHandler(db *gorm.DB, svc *service.Account) *UserHandler {
	return &UserHandler{DB: db, Svc: svc}
}

// mapErr 业务错误 → 动作错误。邮件 / 图床故障是 500，其余一律 400。
func mapErr(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidToken):
		return ez.BadRequest(err.Error())
	case errors.Is(err, service.ErrUpstream):
		return ez.Internal(err.Error(), err)
	default:
		return err
	}
}

type registerIn struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
	Password  string `form:"password"`
	Phone     string `form:"phone_number"`
	Role      string `form:"role"`
}

type sessionOut struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Mount public 挂到 /api/v1，authed 挂到带 AuthJWT 的分组
func (h *UserHandler) Mount(public, authed *gin.RouterGroup) {
	ezPub := ez.New(public)
	ezAuth := ez.New(authed)

	// POST /user/create-user：只发激活邮件，不建行
	ez.RegisterAction[registerIn, gin.H](ezPub, h.DB, ez.Action[registerIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/user/create-user",
		Binder: ez.BindForm,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *gorm.DB, in *registerIn) (gin.H, error) {
			reg := service.RegisterInput{
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Email:     in.Email,
				Password:  in.Password,
				Phone:     in.Phone,
				Role:      in.Role,
			}
			// 头像可选，multipart 有文件才上传
			if fh, err := c.FormFile("avatar"); err == nil && fh != nil {
				f, err := fh.Open()
				if err != nil {
					return nil, ez.BadRequest("cannot read avatar: " + err.Error())
				}
				defer f.Close()
				reg.Avatar = f
				reg.AvatarName = fh.Filename
				reg.AvatarType = fh.Header.Get("Content-Type")
			}
			if err := h.Svc.Register(c, reg); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"message": "please check your email to activate your account"}, nil
		},
	})

	// GET /user/activation/:token
	ez.RegisterAction[struct{}, sessionOut](ezPub, h.DB, ez.Action[struct{}, sessionOut]{
		Method: http.MethodGet,
		Path:   "/user/activation/:token",
		Binder: ez.BindNone,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (sessionOut, error) {
			u, tok, err := h.Svc.Activate(c, c.Param("token"))
			if err != nil {
				return sessionOut{}, mapErr(err)
			}
			return sessionOut{Token: tok, User: u}, nil
		},
	})

	// POST /user/login-user
	type loginIn struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	ez.RegisterAction[loginIn, sessionOut](ezPub, h.DB, ez.Action[loginIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/user/login-user",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *gorm.DB, in *loginIn) (sessionOut, error) {
			u, tok, err := h.Svc.Login(c, in.Email, in.Password)
			if err != nil {
				return sessionOut{}, mapErr(err)
			}
			return sessionOut{Token: tok, User: u}, nil
		},
	})

	// POST /user/reset-password：发重置邮件
	type resetReqIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	ez.RegisterAction[resetReqIn, gin.H](ezPub, h.DB, ez.Action[resetReqIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/user/reset-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *resetReqIn) (gin.H, error) {
			if err := h.Svc.RequestPasswordReset(c, in.Email); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"message": "please check your email for the reset link"}, nil
		},
	})

	// PUT /user/reset-password：凭 token 改密码
	type resetConfirmIn struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	ez.RegisterAction[resetConfirmIn, gin.H](ezPub, h.DB, ez.Action[resetConfirmIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/user/reset-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *resetConfirmIn) (gin.H, error) {
			if err := h.Svc.ConfirmPasswordReset(c, in.Token, in.Password); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"message": "password updated"}, nil
		},
	})

	// GET /user/user-info/:id
	ez.RegisterAction[struct{}, any](ezAuth, h.DB, ez.Action[struct{}, any]{
		Method: http.MethodGet,
		Path:   "/user/user-info/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (any, error) {
			u, err := h.Svc.Info(c, c.Param("id"))
			if err != nil {
				return nil, mapErr(err)
			}
			return u, nil
		},
	})

	// PUT /user/update-user-info：部分更新，指针字段区分"没传"和"传了空"
	type updateIn struct {
		Email     *string `json:"email"`
		Phone     *string `json:"phone_number"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	ez.RegisterAction[updateIn, any](ezAuth, h.DB, ez.Action[updateIn, any]{
		Method: http.MethodPut,
		Path:   "/user/update-user-info",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *updateIn) (any, error) {
			u, err := h.Svc.UpdateProfile(c, c.GetString("userId"), service.UpdateProfileInput{
				Email:     in.Email,
				Phone:     in.Phone,
				FirstName: in.FirstName,
				LastName:  in.LastName,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return u, nil
		},
	})

	// PUT /user/update-avatar：必须带文件
	ez.RegisterAction[struct{}, any](ezAuth, h.DB, ez.Action[struct{}, any]{
		Method: http.MethodPut,
		Path:   "/user/update-avatar",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (any, error) {
			fh, err := c.FormFile("avatar")
			if err != nil {
				return nil, ez.BadRequest("avatar file is required")
			}
			f, err := fh.Open()
			if err != nil {
				return nil, ez.BadRequest("cannot read avatar: " + err.Error())
			}
			defer f.Close()
			u, err := h.Svc.UpdateAvatar(c, c.GetString("userId"), f, fh.Filename, fh.Header.Get("Content-Type"))
			if err != nil {
				return nil, mapErr(err)
			}
			return u, nil
		},
	})
}

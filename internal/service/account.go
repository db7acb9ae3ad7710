package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-course-enroll/internal/core/auth"
	"go-course-enroll/internal/domain"
	"go-course-enroll/internal/imagestore"
	"go-course-enroll/internal/mailer"
	"go-course-enroll/internal/repo"
	"go-course-enroll/pkg/utils"
)

// Account 账号生命周期：注册 → 激活 → 登录 → 资料更新 → 密码重置。
// 注册不落库，候选用户整体进激活 token，校验通过才插入。
type Account struct {
	users      domain.UserRepository
	session    *auth.JWTer
	activation *auth.ActivationIssuer
	mail       mailer.Mailer
	images     imagestore.ImageStore
	baseURL    string
	resetTTL   time.Duration
	log        *zap.Logger
}

func NewAccount(
	users domain.UserRepository,
	session *auth.JWTer,
	activation *auth.ActivationIssuer,
	mail mailer.Mailer,
	images imagestore.ImageStore,
	baseURL string,
	resetTTL time.Duration,
	log *zap.Logger,
) *Account {
	return &Account{
		users:      users,
		session:    session,
		activation: activation,
		mail:       mail,
		images:     images,
		baseURL:    strings.TrimRight(baseURL, "/"),
		resetTTL:   resetTTL,
		log:        log,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Role      string

	// 可选头像，multipart 里带文件就走图床
	Avatar      io.Reader
	AvatarName  string
	AvatarType  string
}

// Register 成功只发激活邮件，不建任何行
func (a *Account) Register(ctx context.Context, in RegisterInput) error {
	if in.FirstName == "" || in.Email == "" || in.Password == "" {
		return fmt.Errorf("%w: first_name, email and password are required", ErrValidation)
	}
	if !utils.ValidPassword(in.Password) {
		return fmt.Errorf("%w: password must be at least 8 characters with upper, lower and digit", ErrValidation)
	}

	// 先查重只是给出友好报错；真正的唯一性由库上的唯一索引保证
	if existing, err := a.users.FindByEmail(in.Email); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("%w: email already registered", ErrConflict)
	}

	profilePic := ""
	if in.Avatar != nil {
		url, err := a.images.Upload(ctx, in.Avatar, "avatars", in.AvatarName, in.AvatarType)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		profilePic = url
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	token, err := a.activation.Issue(auth.PendingUser{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		Phone:        in.Phone,
		ProfilePic:   profilePic,
		Role:         role,
	})
	if err != nil {
		return err
	}

	link := a.baseURL + "/api/v1/user/activation/" + token
	err = a.mail.Send(mailer.Message{
		To:      in.Email,
		Subject: "Activate your account",
		Body:    fmt.Sprintf("Hi %s,\n\nFollow the link to activate your account:\n%s\n\nThe link expires in %d minutes.", in.FirstName, link, int(a.activation.TTL.Minutes())),
	})
	if err != nil {
		// token 已签出且在有效期内可用，调用方只能拿到 500
		a.log.Error("activation mail failed", zap.String("email", in.Email), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// Activate 校验激活 token 并落库。token 重放撞唯一索引，按冲突拒绝。
func (a *Account) Activate(ctx context.Context, token string) (*domain.User, string, error) {
	pending, err := a.activation.Parse(token)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Email:        pending.Email,
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Phone:        pending.Phone,
		ProfilePic:   pending.ProfilePic,
		PasswordHash: pending.PasswordHash,
		Role:         pending.Role,
	}
	if err := a.users.Create(u); err != nil {
		if repo.IsDupKey(err) {
			return nil, "", fmt.Errorf("%w: account already activated", ErrConflict)
		}
		return nil, "", err
	}

	err = a.mail.Send(mailer.Message{
		To:      u.Email,
		Subject: "Welcome",
		Body:    fmt.Sprintf("Hi %s, your account is now active.", u.FirstName),
	})
	if err != nil {
		// 行已提交；给调用方报 500，但账号已经可登录
		a.log.Error("welcome mail failed", zap.String("email", u.Email), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	tok, err := a.session.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (a *Account) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := a.users.FindByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", fmt.Errorf("%w: no account for this email", ErrNotFound)
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	tok, err := a.session.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (a *Account) Info(ctx context.Context, id string) (*domain.User, error) {
	u, err := a.users.FindByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return u, nil
}

type UpdateProfileInput struct {
	Email     *string
	Phone     *string
	FirstName *string
	LastName  *string
}

// UpdateProfile 只替换提交的字段；无论是否有未完成的重置流程，一律清空重置 token
func (a *Account) UpdateProfile(ctx context.Context, uid string, in UpdateProfileInput) (*domain.User, error) {
	u, err := a.users.FindByID(uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	fields := map[string]any{
		"reset_password_token":   "",
		"reset_password_expires": nil,
	}
	if in.Email != nil && *in.Email != u.Email {
		other, err := a.users.FindByEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != uid {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		fields["email"] = *in.Email
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}

	if err := a.users.UpdateFields(uid, fields); err != nil {
		if repo.IsDupKey(err) {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		return nil, err
	}
	return a.users.FindByID(uid)
}

// UpdateAvatar 上传后重新读一遍行，返回真实落库状态
func (a *Account) UpdateAvatar(ctx context.Context, uid string, r io.Reader, filename, contentType string) (*domain.User, error) {
	u, err := a.users.FindByID(uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	url, err := a.images.Upload(ctx, r, "avatars", filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := a.users.UpdateFields(uid, map[string]any{"profile_pic": url}); err != nil {
		return nil, err
	}
	return a.users.FindByID(uid)
}

// RequestPasswordReset token 是每次随机的一次性 nonce，库里只存 sha256。
// 先落库后发信：邮件失败返回 500，但已存的 token 在过期前仍然有效。
func (a *Account) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := a.users.FindByEmail(email)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: no account for this email", ErrNotFound)
	}

	nonce := utils.NewNonce()
	expires := time.Now().Add(a.resetTTL)
	err = a.users.UpdateFields(u.ID, map[string]any{
		"reset_password_token":   hashToken(nonce),
		"reset_password_expires": expires,
	})
	if err != nil {
		return err
	}

	link := a.baseURL + "/reset-password?token=" + nonce
	err = a.mail.Send(mailer.Message{
		To:      u.Email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Hi %s,\n\nFollow the link to reset your password:\n%s\n\nThe link expires in %d minutes.", u.FirstName, link, int(a.resetTTL.Minutes())),
	})
	if err != nil {
		a.log.Error("reset mail failed", zap.String("email", u.Email), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

func (a *Account) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}

	u, err := a.users.FindByResetToken(hashToken(token))
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: reset token not recognized", ErrInvalidToken)
	}
	if u.ResetPasswordExpires == nil || time.Now().After(*u.ResetPasswordExpires) {
		return fmt.Errorf("%w: reset token expired", ErrInvalidToken)
	}

	return a.users.UpdateFields(u.ID, map[string]any{
		"password_hash":          utils.HashPassword(newPassword),
		"reset_password_token":   "",
		"reset_password_expires": nil,
	})
}

func hashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

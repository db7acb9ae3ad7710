package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims 会话 token 的负载
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"` // "user" / "Admin"
	jwt.RegisteredClaims
}

// JWTer 签发 / 校验会话 token
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (j *JWTer) Issue(uid, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrTokenInvalid
}

// PendingUser 激活前的候选用户，完整打进激活 token，入库发生在校验之后
type PendingUser struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Phone        string `json:"phone,omitempty"`
	ProfilePic   string `json:"profile_pic,omitempty"`
	Role         string `json:"role"`
}

type ActivationClaims struct {
	User PendingUser `json:"user"`
	jwt.RegisteredClaims
}

// ActivationIssuer 激活 token 用独立密钥和有效期
type ActivationIssuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (a *ActivationIssuer) Issue(u PendingUser) (string, error) {
	now := time.Now()
	claims := ActivationClaims{
		User: u,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// Parse 验签失败 / 过期 / 结构不对一律拒绝，不得部分信任负载
func (a *ActivationIssuer) Parse(tokenStr string) (*PendingUser, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &ActivationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return a.Secret, nil
	}, jwt.WithIssuer(a.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	c, ok := t.Claims.(*ActivationClaims)
	if !ok || !t.Valid || c.User.Email == "" {
		return nil, ErrTokenInvalid
	}
	u := c.User
	return &u, nil
}

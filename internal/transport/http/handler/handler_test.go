package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-course-enroll/internal/core/auth"
	"go-course-enroll/internal/domain"
	"go-course-enroll/internal/mailer"
	"go-course-enroll/internal/repo"
	"go-course-enroll/internal/service"
	"go-course-enroll/internal/transport/http/handler"
	"go-course-enroll/internal/transport/http/router"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type fakeMailer struct{ sent []mailer.Message }

func (f *fakeMailer) Send(m mailer.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

type fakeImages struct{}

func (fakeImages) Upload(ctx context.Context, r io.Reader, folder, filename, contentType string) (string, error) {
	return "http://img.test/" + folder + "/" + filename, nil
}

type env struct {
	r     *gin.Engine
	db    *gorm.DB
	mail  *fakeMailer
	jwter *auth.JWTer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Course{}, &domain.Enrollment{}))

	jwter := &auth.JWTer{Secret: []byte("session-secret"), Issuer: "test", TTL: time.Hour}
	m := &fakeMailer{}
	account := service.NewAccount(
		repo.NewUserRepo(db),
		jwter,
		&auth.ActivationIssuer{Secret: []byte("activation-secret"), Issuer: "test", TTL: 30 * time.Minute},
		m,
		fakeImages{},
		"http://api.test",
		30*time.Minute,
		zap.NewNop(),
	)
	courses := service.NewCourses(repo.NewCourseRepo(db), nil, 0)

	router.Reset()
	router.Register(handler.NewCourseModule(db, courses, jwter))
	router.Register(handler.NewEnrollmentModule(db, jwter))

	return &env{
		r:     router.NewAPIEngine(zap.NewNop(), db, jwter, account),
		db:    db,
		mail:  m,
		jwter: jwter,
	}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e *env) do(t *testing.T, method, path string, body io.Reader, contentType, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w, out
}

func (e *env) doJSON(t *testing.T, method, path string, payload any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, strings.NewReader(string(b)), "application/json", token)
}

func registerForm(email string) url.Values {
	return url.Values{
		"first_name": {"Ada"},
		"email":      {email},
		"password":   {"Abcdefg1"},
	}
}

// activate 跑完 注册 → 激活，返回用户 id 和会话 token
func (e *env) activate(t *testing.T, email string) (string, string) {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/api/v1/user/create-user",
		strings.NewReader(registerForm(email).Encode()),
		"application/x-www-form-urlencoded", "")
	require.Equal(t, http.StatusCreated, w.Code)

	body := e.mail.sent[len(e.mail.sent)-1].Body
	idx := strings.Index(body, "/api/v1/user/activation/")
	require.GreaterOrEqual(t, idx, 0)
	link := strings.Fields(body[idx:])[0]

	w, out := e.do(t, http.MethodGet, link, nil, "", "")
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var sess struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &sess))
	require.NotEmpty(t, sess.Token)
	require.NotEmpty(t, sess.User.ID)
	return sess.User.ID, sess.Token
}

func TestRegisterEndpoint(t *testing.T) {
	e := newEnv(t)

	t.Run("created", func(t *testing.T) {
		w, out := e.do(t, http.MethodPost, "/api/v1/user/create-user",
			strings.NewReader(registerForm("ada@example.com").Encode()),
			"application/x-www-form-urlencoded", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 0, out.Code)
		assert.Len(t, e.mail.sent, 1)

		var n int64
		require.NoError(t, e.db.Model(&domain.User{}).Count(&n).Error)
		assert.EqualValues(t, 0, n)
	})

	t.Run("weak password", func(t *testing.T) {
		f := registerForm("bob@example.com")
		f.Set("password", "abcdefgh")
		w, out := e.do(t, http.MethodPost, "/api/v1/user/create-user",
			strings.NewReader(f.Encode()),
			"application/x-www-form-urlencoded", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 400, out.Code)
	})
}

func TestActivationBadToken(t *testing.T) {
	e := newEnv(t)

	w, out := e.do(t, http.MethodGet, "/api/v1/user/activation/garbage", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400, out.Code)
}

func TestAccountFlowHTTP(t *testing.T) {
	e := newEnv(t)
	uid, token := e.activate(t, "ada@example.com")

	t.Run("login", func(t *testing.T) {
		w, out := e.doJSON(t, http.MethodPost, "/api/v1/user/login-user",
			gin.H{"email": "ada@example.com", "password": "Abcdefg1"}, "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 0, out.Code)
	})

	t.Run("login wrong password", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPost, "/api/v1/user/login-user",
			gin.H{"email": "ada@example.com", "password": "WrongPass1"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login malformed email", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPost, "/api/v1/user/login-user",
			gin.H{"email": "not-an-email", "password": "Abcdefg1"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("user info requires token", func(t *testing.T) {
		w, _ := e.do(t, http.MethodGet, "/api/v1/user/user-info/"+uid, nil, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user info", func(t *testing.T) {
		w, out := e.do(t, http.MethodGet, "/api/v1/user/user-info/"+uid, nil, "", token)
		assert.Equal(t, http.StatusCreated, w.Code)
		var u struct {
			Email string `json:"email"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &u))
		assert.Equal(t, "ada@example.com", u.Email)
	})

	t.Run("update profile", func(t *testing.T) {
		w, out := e.doJSON(t, http.MethodPut, "/api/v1/user/update-user-info",
			gin.H{"phone_number": "555-0101"}, token)
		assert.Equal(t, http.StatusOK, w.Code)
		var u struct {
			Phone string `json:"phone_number"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &u))
		assert.Equal(t, "555-0101", u.Phone)
	})

	t.Run("update avatar without file", func(t *testing.T) {
		w, _ := e.do(t, http.MethodPut, "/api/v1/user/update-avatar", nil, "", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPasswordResetHTTP(t *testing.T) {
	e := newEnv(t)
	e.activate(t, "ada@example.com")

	w, _ := e.doJSON(t, http.MethodPost, "/api/v1/user/reset-password",
		gin.H{"email": "ada@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := e.mail.sent[len(e.mail.sent)-1].Body
	idx := strings.Index(body, "token=")
	require.GreaterOrEqual(t, idx, 0)
	nonce := strings.Fields(body[idx+len("token="):])[0]

	t.Run("bogus token", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPut, "/api/v1/user/reset-password",
			gin.H{"token": "bogus", "password": "NewPass1x"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ok", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPut, "/api/v1/user/reset-password",
			gin.H{"token": nonce, "password": "NewPass1x"}, "")
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = e.doJSON(t, http.MethodPost, "/api/v1/user/login-user",
			gin.H{"email": "ada@example.com", "password": "NewPass1x"}, "")
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestCourseEndpoints(t *testing.T) {
	e := newEnv(t)

	adminTok, err := e.jwter.Issue("admin1", domain.RoleAdmin)
	require.NoError(t, err)
	userTok, err := e.jwter.Issue("user1", domain.RoleUser)
	require.NoError(t, err)

	t.Run("create requires token", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPost, "/api/v1/course/create-course",
			gin.H{"title": "Go Basics"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create requires admin role", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPost, "/api/v1/course/create-course",
			gin.H{"title": "Go Basics"}, userTok)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	var courseID string
	t.Run("create as admin", func(t *testing.T) {
		w, out := e.doJSON(t, http.MethodPost, "/api/v1/course/create-course",
			gin.H{"title": "Go Basics", "category": "go", "price": 19.99}, adminTok)
		require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
		var c struct {
			ID        string `json:"id"`
			CreatedBy string `json:"created_by"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &c))
		assert.Equal(t, "admin1", c.CreatedBy)
		courseID = c.ID
	})

	t.Run("public get and list", func(t *testing.T) {
		w, _ := e.do(t, http.MethodGet, "/api/v1/course/get-course/"+courseID, nil, "", "")
		assert.Equal(t, http.StatusOK, w.Code)

		w, out := e.do(t, http.MethodGet, "/api/v1/course/get-courses?category=go", nil, "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &list))
		assert.EqualValues(t, 1, list.Total)
	})

	t.Run("update and delete as admin", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPut, "/api/v1/course/update-course/"+courseID,
			gin.H{"price": 29.99}, adminTok)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = e.do(t, http.MethodDelete, "/api/v1/course/delete-course/"+courseID, nil, "", adminTok)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = e.do(t, http.MethodGet, "/api/v1/course/get-course/"+courseID, nil, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEnrollmentEndpoints(t *testing.T) {
	e := newEnv(t)

	userTok, err := e.jwter.Issue("user1", domain.RoleUser)
	require.NoError(t, err)

	course := &domain.Course{ID: "course1", Title: "Go Basics", CreatedBy: "admin1"}
	require.NoError(t, e.db.Create(course).Error)

	t.Run("requires token", func(t *testing.T) {
		w, _ := e.doJSON(t, http.MethodPost, "/api/v1/enrollment",
			gin.H{"course_id": "course1"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown course", func(t *testing.T) {
		w, out := e.doJSON(t, http.MethodPost, "/api/v1/enrollment",
			gin.H{"course_id": "missing"}, userTok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "course not found", out.Msg)
	})

	var enrollID string
	t.Run("enroll", func(t *testing.T) {
		w, out := e.doJSON(t, http.MethodPost, "/api/v1/enrollment",
			gin.H{"course_id": "course1"}, userTok)
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
		var en struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &en))
		assert.Equal(t, "user1", en.UserID)
		assert.Equal(t, domain.EnrollmentActive, en.Status)
		enrollID = en.ID
	})

	t.Run("duplicate enroll", func(t *testing.T) {
		w, out := e.doJSON(t, http.MethodPost, "/api/v1/enrollment",
			gin.H{"course_id": "course1"}, userTok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "already exists", out.Msg)
	})

	t.Run("list mine", func(t *testing.T) {
		w, out := e.do(t, http.MethodGet, "/api/v1/enrollment", nil, "", userTok)
		assert.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &list))
		assert.EqualValues(t, 1, list.Total)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		otherTok, err := e.jwter.Issue("user2", domain.RoleUser)
		require.NoError(t, err)
		w, _ := e.do(t, http.MethodGet, "/api/v1/enrollment/"+enrollID, nil, "", otherTok)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("withdraw", func(t *testing.T) {
		w, _ := e.do(t, http.MethodDelete, "/api/v1/enrollment/"+enrollID, nil, "", userTok)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = e.do(t, http.MethodGet, "/api/v1/enrollment/"+enrollID, nil, "", userTok)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

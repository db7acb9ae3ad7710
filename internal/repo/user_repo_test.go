package repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-course-enroll/internal/domain"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func mkUser(id, email, first string) *domain.User {
	return &domain.User{ID: id, Email: email, FirstName: first, PasswordHash: "x", Role: domain.RoleUser}
}

func TestUserRepoFindConventions(t *testing.T) {
	r := NewUserRepo(newRepoDB(t))
	require.NoError(t, r.Create(mkUser("u1", "ada@example.com", "Ada")))

	t.Run("found", func(t *testing.T) {
		u, err := r.FindByEmail("ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "u1", u.ID)
	})

	// 未命中返回 (nil, nil)，调用方不用再认 gorm.ErrRecordNotFound
	t.Run("miss is nil nil", func(t *testing.T) {
		u, err := r.FindByEmail("nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, u)

		u, err = r.FindByID("missing")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("empty reset token never matches", func(t *testing.T) {
		u, err := r.FindByResetToken("")
		require.NoError(t, err)
		assert.Nil(t, u)
	})
}

func TestUserRepoDupEmail(t *testing.T) {
	r := NewUserRepo(newRepoDB(t))
	require.NoError(t, r.Create(mkUser("u1", "ada@example.com", "Ada")))

	err := r.Create(mkUser("u2", "ada@example.com", "Imposter"))
	require.Error(t, err)
	assert.True(t, IsDupKey(err), "got: %v", err)
}

func TestIsDupKey(t *testing.T) {
	assert.False(t, IsDupKey(nil))
	assert.False(t, IsDupKey(fmt.Errorf("connection refused")))
	// 三大驱动的报错措辞
	assert.True(t, IsDupKey(fmt.Errorf("UNIQUE constraint failed: users.email")))
	assert.True(t, IsDupKey(fmt.Errorf("Error 1062: Duplicate entry 'a@b.c' for key 'users.email'")))
	assert.True(t, IsDupKey(fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_users_email"`)))
}

func TestUserRepoUpdateFieldsZeroValues(t *testing.T) {
	r := NewUserRepo(newRepoDB(t))
	u := mkUser("u1", "ada@example.com", "Ada")
	u.ResetPasswordToken = "abc123"
	require.NoError(t, r.Create(u))

	// map 更新能把字段清回零值
	require.NoError(t, r.UpdateFields("u1", map[string]any{
		"reset_password_token":   "",
		"reset_password_expires": nil,
	}))

	got, err := r.FindByID("u1")
	require.NoError(t, err)
	assert.Empty(t, got.ResetPasswordToken)
	assert.Nil(t, got.ResetPasswordExpires)
}

func TestUserRepoListAndSoftDelete(t *testing.T) {
	r := NewUserRepo(newRepoDB(t))
	require.NoError(t, r.Create(mkUser("u1", "ada@example.com", "Ada")))
	require.NoError(t, r.Create(mkUser("u2", "bob@example.com", "Bob")))

	t.Run("search", func(t *testing.T) {
		users, total, err := r.List(0, 10, "ada", false)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, users, 1)
		assert.Equal(t, "u1", users[0].ID)
	})

	t.Run("soft delete hides from default list", func(t *testing.T) {
		require.NoError(t, r.SoftDelete("u2"))

		_, total, err := r.List(0, 10, "", false)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		_, total, err = r.List(0, 10, "", true)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})
}

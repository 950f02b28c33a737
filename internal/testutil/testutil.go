// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the password of users created by NewTestUser.
const DefaultPassword = "supersecret"

// NewTestDB opens a migrated SQLite database in a temporary directory.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), database.GormConfig(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// UserOption customizes NewTestUser.
type UserOption func(*models.User)

func WithAdmin() UserOption {
	return func(u *models.User) {
		u.IsAdmin = true
		u.Role = models.RoleAdministrator
	}
}

func WithInactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

func WithRole(role models.UserRole) UserOption {
	return func(u *models.User) { u.Role = role }
}

// NewTestUser inserts an active developer named name with DefaultPassword.
func NewTestUser(t *testing.T, db *gorm.DB, name, email string, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Title:        "Engineer",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleDeveloper,
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(user)
	}

	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

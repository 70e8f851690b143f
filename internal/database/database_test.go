// /internal/database/database_test.go
package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/logging"
	"github.com/ericoliveiras/shopeasy/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestOpenAndMigrate(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []any{&model.User{}, &model.Product{}, &model.Cart{}, &model.CartItem{}, &model.Order{}, &model.OrderItem{}} {
		assert.True(t, db.Migrator().HasTable(table), "tabela ausente para %T", table)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	assert.Error(t, err)

	_, err = Open(config.DriverSQLite, "", nil)
	assert.Error(t, err)
}

func TestGormLogsAreJSONAndSkipNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := Open(config.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), logging.NewWithWriter(&buf, "test", "info"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var cart model.Cart
	err = db.Where("user_id = ?", 999).First(&cart).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "record not found")

	require.Error(t, db.Exec("SELECT * FROM tabela_inexistente").Error)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "linha fora do formato JSON: %s", line)
		assert.Equal(t, "gorm", entry["component"])
		assert.NotContains(t, line, "\x1b[")
	}
	assert.Contains(t, buf.String(), "tabela_inexistente")
}

func TestCartUserIDIsUnique(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&model.Cart{UserID: 1}).Error)
	err := db.Create(&model.Cart{UserID: 1}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`)))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}

func TestSeedAdmin(t *testing.T) {
	db := openTestDB(t)
	log := logging.Discard()

	created, err := SeedAdmin(db, log, "Admin@Shop.com", "senhaforte123")
	require.NoError(t, err)
	assert.True(t, created)

	var admin model.User
	require.NoError(t, db.Where("email = ?", "admin@shop.com").First(&admin).Error)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, "admin", admin.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("senhaforte123")))

	created, err = SeedAdmin(db, log, "admin@shop.com", "outra")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = SeedAdmin(db, log, "", "x")
	assert.Error(t, err)
}

// Package testutil reúne helpers compartilhados pelos testes.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/database"
	"github.com/ericoliveiras/shopeasy/internal/logging"
	"github.com/ericoliveiras/shopeasy/internal/model"
)

var seq atomic.Int64

// NewDB cria um banco SQLite migrado dentro de t.TempDir().
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// TestPassword é a senha de todos os usuários criados por CreateUser.
const TestPassword = "senhaValidaParaTeste123"

// CreateUser cria um usuário com nome e e-mail únicos.
func CreateUser(t *testing.T, db *gorm.DB, role string) model.User {
	t.Helper()
	n := seq.Add(1)
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{
		Username:     fmt.Sprintf("usuario_%d", n),
		Email:        fmt.Sprintf("usuario_%d@example.com", n),
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateProduct cria um produto com o preço (string decimal) e estoque informados.
func CreateProduct(t *testing.T, db *gorm.DB, price string, stock int) model.Product {
	t.Helper()
	n := seq.Add(1)
	product := model.Product{
		Name:     fmt.Sprintf("Produto Teste %d", n),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		ImageURL: "https://cdn.example.com/placeholder.jpg",
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

// Stock relê o estoque atual do produto, incluindo excluídos.
func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Unscoped().First(&p, productID).Error)
	return p.Stock
}

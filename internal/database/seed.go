// /internal/database/seed.go
package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/model"
)

// SeedAdmin cria a conta de administrador se ela ainda não existir.
// Retorna true quando a conta foi criada.
func SeedAdmin(db *gorm.DB, log *slog.Logger, email, password string) (bool, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return false, errors.New("ADMIN_EMAIL e ADMIN_PASSWORD são obrigatórios para o seed")
	}

	var user model.User
	err := db.Unscoped().Where("email = ?", email).First(&user).Error
	if err == nil {
		log.Info("usuário admin já existe", "email", email)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("falha ao buscar admin: %w", err)
	}

	log.Info("usuário admin não encontrado, criando um novo", "email", email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("falha ao criar hash da senha do admin: %w", err)
	}

	admin := model.User{
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("falha ao criar o usuário admin: %w", err)
	}
	log.Info("usuário admin criado com sucesso", "id", admin.ID)
	return true, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/database"
	"github.com/ericoliveiras/shopeasy/internal/model"
)

const minPasswordLength = 8

type UserService struct {
	db   *gorm.DB
	log  *slog.Logger
	cost int
}

func NewUserService(db *gorm.DB, log *slog.Logger) *UserService {
	return &UserService{db: db, log: log, cost: bcrypt.DefaultCost}
}

// WithHashCost troca o custo do bcrypt. Usado nos testes.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ProfileUpdate struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register cria um cliente. Nome de usuário e e-mail precisam ser únicos.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" {
		return nil, invalid("username", "o nome de usuário é obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "informe um e-mail válido")
	}
	if err := checkNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("falha ao gerar hash da senha: %w", err)
	}
	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleCustomer,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("nome de usuário ou e-mail já cadastrado: %w", ErrConflict)
		}
		return nil, fmt.Errorf("falha ao criar usuário: %w", err)
	}
	s.log.Info("usuário cadastrado", "user_id", user.ID)
	return &user, nil
}

// Authenticate aceita nome de usuário ou e-mail como login.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var user model.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("falha ao buscar usuário: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("usuário", id)
		}
		return nil, fmt.Errorf("falha ao buscar usuário %d: %w", id, err)
	}
	return &user, nil
}

// UpdateProfile altera nome de usuário e nome. O e-mail não muda por aqui.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, invalid("username", "o nome de usuário é obrigatório")
		}
		user.Username = username
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	err = s.db.WithContext(ctx).Model(user).Select("username", "first_name", "last_name").Updates(user).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("nome de usuário já cadastrado: %w", ErrConflict)
		}
		return nil, fmt.Errorf("falha ao atualizar usuário %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uint, in PasswordChange) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return invalid("current_password", "senha atual incorreta")
	}
	if err := checkNewPassword(in.NewPassword, in.ConfirmPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("falha ao gerar hash da senha: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("falha ao trocar senha do usuário %d: %w", id, err)
	}
	s.log.Info("senha alterada", "user_id", id)
	return nil
}

func checkNewPassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return invalid("password", fmt.Sprintf("a senha precisa ter pelo menos %d caracteres", minPasswordLength))
	}
	if password != confirm {
		return invalid("confirm_password", "as senhas não coincidem")
	}
	return nil
}

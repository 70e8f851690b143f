package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericoliveiras/shopeasy/internal/logging"
	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/testutil"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(testutil.NewDB(t), logging.Discard()).WithHashCost(bcrypt.MinCost)
}

func registration() RegisterInput {
	return RegisterInput{
		Username:        "maria",
		Email:           "Maria@Example.com",
		Password:        "segredo123",
		ConfirmPassword: "segredo123",
	}
}

func TestRegister(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()

	user, err := users.Register(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.NotEqual(t, "segredo123", user.PasswordHash)

	_, err = users.Register(ctx, registration())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()

	cases := map[string]func(*RegisterInput){
		"senhas diferentes": func(in *RegisterInput) { in.ConfirmPassword = "outra-senha" },
		"senha curta":       func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" },
		"e-mail inválido":   func(in *RegisterInput) { in.Email = "sem-arroba" },
		"sem usuário":       func(in *RegisterInput) { in.Username = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := registration()
			mutate(&in)
			_, err := users.Register(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()
	created, err := users.Register(ctx, registration())
	require.NoError(t, err)

	byName, err := users.Authenticate(ctx, "maria", "segredo123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := users.Authenticate(ctx, "MARIA@example.com", "segredo123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.Authenticate(ctx, "maria", "errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "ninguem", "segredo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfileKeepsEmail(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()
	created, err := users.Register(ctx, registration())
	require.NoError(t, err)

	first, last := "Maria", "Silva"
	updated, err := users.UpdateProfile(ctx, created.ID, ProfileUpdate{FirstName: &first, LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Maria", updated.FirstName)
	assert.Equal(t, created.Email, updated.Email)

	empty := " "
	_, err = users.UpdateProfile(ctx, created.ID, ProfileUpdate{Username: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = users.UpdateProfile(ctx, 999, ProfileUpdate{FirstName: &first})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()
	created, err := users.Register(ctx, registration())
	require.NoError(t, err)

	err = users.ChangePassword(ctx, created.ID, PasswordChange{
		CurrentPassword: "errada", NewPassword: "novaSenha123", ConfirmPassword: "novaSenha123",
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = users.ChangePassword(ctx, created.ID, PasswordChange{
		CurrentPassword: "segredo123", NewPassword: "novaSenha123", ConfirmPassword: "diferente123",
	})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, users.ChangePassword(ctx, created.ID, PasswordChange{
		CurrentPassword: "segredo123", NewPassword: "novaSenha123", ConfirmPassword: "novaSenha123",
	}))
	_, err = users.Authenticate(ctx, "maria", "novaSenha123")
	assert.NoError(t, err)
	_, err = users.Authenticate(ctx, "maria", "segredo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

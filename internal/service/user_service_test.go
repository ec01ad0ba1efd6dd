package service

import (
	"strings"
	"testing"

	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		DisplayName:     "Анна Петрова-Сидорова",
		Username:        "anna_p",
		Email:           "anna@example.com",
		Password:        "Secret123",
		PasswordConfirm: "Secret123",
		AgreeToTerms:    true,
	}
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates a regular account with a hashed password", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(testutil.NewUserRepoStub())
		user, err := svc.Register(t.Context(), validRegistration())
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.False(t, user.IsStaff)
		assert.NotEqual(t, "Secret123", user.Password)
	})

	t.Run("accumulates field errors", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(testutil.NewUserRepoStub())
		_, err := svc.Register(t.Context(), RegisterInput{
			DisplayName:     "Anna",
			Username:        "a b",
			Email:           "not-an-email",
			Password:        "short",
			PasswordConfirm: "other",
		})
		assertField(t, err, "display_name", models.ReasonInvalid)
		assertField(t, err, "username", models.ReasonInvalid)
		assertField(t, err, "email", models.ReasonInvalid)
		assertField(t, err, "password", models.ReasonTooShort)
		assertField(t, err, "password_confirm", models.ReasonMismatch)
		assertField(t, err, "agree_to_terms", models.ReasonRequired)
	})

	t.Run("weak password is invalid", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(testutil.NewUserRepoStub())
		in := validRegistration()
		in.Password, in.PasswordConfirm = "alllowercase1", "alllowercase1"
		_, err := svc.Register(t.Context(), in)
		assertField(t, err, "password", models.ReasonInvalid)
	})

	t.Run("password longer than bcrypt allows is too long", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(testutil.NewUserRepoStub())
		in := validRegistration()
		in.Password = "Aa1" + strings.Repeat("x", 97)
		in.PasswordConfirm = in.Password
		_, err := svc.Register(t.Context(), in)
		assertField(t, err, "password", models.ReasonTooLong)
	})

	t.Run("password at the bcrypt limit is accepted", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(testutil.NewUserRepoStub())
		in := validRegistration()
		in.Password = "Aa1" + strings.Repeat("x", 69)
		in.PasswordConfirm = in.Password
		_, err := svc.Register(t.Context(), in)
		require.NoError(t, err)
	})

	t.Run("username and email must be unique", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(testutil.NewUserRepoStub())
		_, err := svc.Register(t.Context(), validRegistration())
		require.NoError(t, err)

		in := validRegistration()
		in.Email = "ANNA@example.com"
		_, err = svc.Register(t.Context(), in)
		assertField(t, err, "username", models.ReasonTaken)
		assertField(t, err, "email", models.ReasonTaken)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()
	svc := NewUserService(testutil.NewUserRepoStub())
	registered, err := svc.Register(t.Context(), validRegistration())
	require.NoError(t, err)

	user, err := svc.Authenticate(t.Context(), "anna_p", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(t.Context(), "anna_p", "wrong")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(t.Context(), "ghost", "Secret123")
	assertCode(t, err, models.CodeUnauthorized)
}

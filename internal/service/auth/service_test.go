package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository/memory"
	jwtauth "github.com/jwalitptl/bookmed-api/pkg/auth"
	apperrors "github.com/jwalitptl/bookmed-api/pkg/errors"
	"github.com/jwalitptl/bookmed-api/pkg/security"
)

func newService() *Service {
	return NewService(
		memory.NewUserRepository(),
		security.NewBcryptHasher(4),
		jwtauth.NewJWTService("test-secret", 1),
	)
}

func doctorRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:           "Dr. Lisa Cuddy",
		Email:          "cuddy@example.com",
		Password:       "secret-password",
		Role:           model.RoleDoctor,
		Specialization: "Endocrinology",
	}
}

func patientRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:     "John Smith",
		Email:    "john@example.com",
		Password: "secret-password",
		Role:     model.RolePatient,
	}
}

func TestRegister(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	t.Run("doctor", func(t *testing.T) {
		user, err := svc.Register(ctx, doctorRequest())
		require.NoError(t, err)
		assert.Equal(t, model.RoleDoctor, user.Role)
		require.NotNil(t, user.Specialization)
		assert.Equal(t, "Endocrinology", *user.Specialization)
		assert.NotEqual(t, "secret-password", user.PasswordHash)
	})

	t.Run("patient specialization ignored", func(t *testing.T) {
		req := patientRequest()
		req.Specialization = "Cardiology"
		user, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, user.Specialization)
	})

	t.Run("doctor without specialization", func(t *testing.T) {
		req := doctorRequest()
		req.Email = "other@example.com"
		req.Specialization = ""
		_, err := svc.Register(ctx, req)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		assert.EqualError(t, err, "specialization is required for doctors")
	})

	t.Run("invalid role", func(t *testing.T) {
		req := patientRequest()
		req.Role = model.Role("ADMIN")
		_, err := svc.Register(ctx, req)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("short password", func(t *testing.T) {
		req := patientRequest()
		req.Email = "short@example.com"
		req.Password = "short"
		_, err := svc.Register(ctx, req)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, doctorRequest())
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
		assert.EqualError(t, err, "email already registered")
	})
}

func TestLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, doctorRequest())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, &model.LoginRequest{
			Email:    "cuddy@example.com",
			Password: "secret-password",
			Role:     model.RoleDoctor,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "cuddy@example.com", resp.User.Email)

		claims, err := svc.ValidateToken(ctx, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
		assert.Equal(t, model.RoleDoctor, claims.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &model.LoginRequest{
			Email:    "nobody@example.com",
			Password: "secret-password",
			Role:     model.RoleDoctor,
		})
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
		assert.EqualError(t, err, "user not found")
	})

	t.Run("wrong role for email", func(t *testing.T) {
		_, err := svc.Login(ctx, &model.LoginRequest{
			Email:    "cuddy@example.com",
			Password: "secret-password",
			Role:     model.RolePatient,
		})
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &model.LoginRequest{
			Email:    "cuddy@example.com",
			Password: "wrong-password",
			Role:     model.RoleDoctor,
		})
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
		assert.EqualError(t, err, "invalid password")
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, "not.a.token")
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	})
}

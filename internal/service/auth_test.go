package service

import (
	"context"
	"testing"
	"time"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/GulovM/ToDo-Master/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(userRepo *MockUserRepository) *AuthService {
	jwtManager := security.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewAuthService(userRepo, jwtManager)
}

func hashPassword(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes email and hashes password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		userRepo.On("EmailExists", ctx, "user@example.com").Return(false, nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := svc.Register(ctx, domain.UserCreate{
			Email:     "  User@Example.COM ",
			Password:  "secret123",
			FirstName: "Ada",
		})

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", user.Email)
		assert.NotEqual(t, "secret123", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		userRepo.On("EmailExists", ctx, "user@example.com").Return(true, nil)

		_, err := svc.Register(ctx, domain.UserCreate{Email: "user@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: "",
	}

	t.Run("valid credentials yield a token pair", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		u := *user
		u.PasswordHash = hashPassword(t, "secret123")
		userRepo.On("GetByEmail", ctx, "user@example.com").Return(&u, nil)

		got, pair, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, int64(900), pair.ExpiresIn)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		u := *user
		u.PasswordHash = hashPassword(t, "secret123")
		userRepo.On("GetByEmail", ctx, "user@example.com").Return(&u, nil)

		_, _, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		userRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, nil)

		_, _, err := svc.Login(ctx, domain.UserLogin{Email: "nobody@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := newAuthService(userRepo)
	jwtManager := security.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	user := &domain.User{ID: uuid.New(), Email: "user@example.com"}
	refresh, err := jwtManager.GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	pair, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("stores a new hash", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		user := &domain.User{ID: userID, PasswordHash: hashPassword(t, "old-pass")}
		userRepo.On("GetByID", ctx, userID).Return(user, nil)
		userRepo.On("UpdatePassword", ctx, userID, mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-pass")) == nil
		})).Return(nil)

		err := svc.ChangePassword(ctx, userID, domain.PasswordChange{CurrentPassword: "old-pass", NewPassword: "new-pass"})
		assert.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := newAuthService(userRepo)

		user := &domain.User{ID: userID, PasswordHash: hashPassword(t, "old-pass")}
		userRepo.On("GetByID", ctx, userID).Return(user, nil)

		err := svc.ChangePassword(ctx, userID, domain.PasswordChange{CurrentPassword: "nope", NewPassword: "new-pass"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})
}

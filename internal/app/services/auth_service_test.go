package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/auth"
)

const testPassword = "correct horse battery"

func newAuthFixture(t *testing.T) (AuthService, *fakeUsers) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	users := newFakeUsers(
		&models.User{ID: 1, Username: "ada", PasswordHash: hash, IsActive: true, IsStaff: true},
		&models.User{ID: 2, Username: "gone", PasswordHash: hash, IsActive: false},
	)
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Minute,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "pc-link-test",
	})
	return NewAuthService(users, appauth.NewAuthorizationService(users), jwtService), users
}

func TestLogin(t *testing.T) {
	svc, users := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: " ada ", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, dto.UserResponse{ID: 1, Username: "ada", IsStaff: true}, resp.User)
	assert.True(t, users.lastLogin[1])
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"unknown user", "nobody", testPassword, apperrors.ErrInvalidCredentials},
		{"wrong password", "ada", "wrong password", apperrors.ErrInvalidCredentials},
		{"inactive user", "gone", testPassword, apperrors.ErrAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users := newAuthFixture(t)

			_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: tt.username, Password: tt.password})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, users.lastLogin)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	svc, users := newAuthFixture(t)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "ada", Password: testPassword})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), login.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token.AccessToken)

	_, err = svc.RefreshToken(context.Background(), login.Token.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "an access token cannot refresh")

	_, err = svc.RefreshToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	users.byID[1].IsActive = false
	_, err = svc.RefreshToken(context.Background(), login.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	me, err := svc.Me(withUser(&models.User{ID: 1, Username: "ada"}))
	require.NoError(t, err)
	assert.Equal(t, "ada", me.Username)

	_, err = svc.Me(context.Background())
	assert.Error(t, err)

	_, err = svc.Me(withUser(&models.User{ID: 2, Username: "gone"}))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateUser(t *testing.T) {
	svc, users := newAuthFixture(t)

	created, err := svc.CreateUser(context.Background(), NewUser{
		Username: "grace",
		Email:    "grace@example.edu",
		Password: "long enough password",
		IsStaff:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "grace", created.Username)
	assert.True(t, created.IsStaff)

	stored := users.byID[created.ID]
	require.NotNil(t, stored)
	assert.True(t, stored.IsActive)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "long enough password"))

	_, err = svc.CreateUser(context.Background(), NewUser{Username: "grace", Password: "long enough password"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameExists)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.CreateUser(context.Background(), NewUser{Username: "has space", Password: "long enough password"})
	assert.ErrorIs(t, err, ErrInvalidUsername)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreateUser(context.Background(), NewUser{Username: "grace", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestSetPassword(t *testing.T) {
	svc, users := newAuthFixture(t)

	require.NoError(t, svc.SetPassword(context.Background(), "ada", "another long password"))
	assert.True(t, auth.CheckPassword(users.byID[1].PasswordHash, "another long password"))

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "ada", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	err = svc.SetPassword(context.Background(), "nobody", "another long password")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

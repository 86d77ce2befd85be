package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	appauth "github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/auth"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
	"github.com/tustunkok/pc-link/internal/pkg/validation"
)

// Define custom error types for auth service. Both are validation failures.
var (
	ErrInvalidUsername = fmt.Errorf("%w: invalid username format", apperrors.ErrValidationFailed)
	ErrInvalidPassword = fmt.Errorf("%w: invalid password format", apperrors.ErrValidationFailed)
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// NewUser describes an account created from the admin CLI
type NewUser struct {
	Username    string
	Email       string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Me(ctx context.Context) (*dto.UserResponse, error)
	CreateUser(ctx context.Context, in NewUser) (*dto.UserResponse, error)
	SetPassword(ctx context.Context, username, password string) error
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	userRepo   IUserRepository
	authz      *appauth.AuthorizationService
	jwtService *auth.JWTService
	log        zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo IUserRepository, authz *appauth.AuthorizationService, jwtService *auth.JWTService) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		authz:      authz,
		jwtService: jwtService,
		log:        logger.Component("auth"),
	}
}

// Login checks the credentials and issues a token pair
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.log.Debug().Str("user", req.Username).Msg("Login attempt for unknown user")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.log.Debug().Str("user", user.Username).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login time")
	}
	s.log.Info().Str("user", user.Username).Msg("User logged in")
	return resp, nil
}

// RefreshToken issues a new token pair for a valid refresh token. The
// account is reloaded so a disabled or demoted user does not keep stale
// privileges.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtService.ValidateAndExtractClaims(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	return s.issue(user)
}

// Me returns the authenticated user
func (s *authServiceImpl) Me(ctx context.Context) (*dto.UserResponse, error) {
	user, err := s.authz.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	resp := dto.FromUser(user)
	return &resp, nil
}

// CreateUser registers an account with a hashed password
func (s *authServiceImpl) CreateUser(ctx context.Context, in NewUser) (*dto.UserResponse, error) {
	if err := validation.NewStringValidation("username", in.Username).
		WithMaxLength(150).
		WithPattern(usernamePattern).
		Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUsername, err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}

	user := &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		IsActive:     true,
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.log.Info().
		Str("user", user.Username).
		Bool("staff", user.IsStaff).
		Bool("superuser", user.IsSuperuser).
		Msg("User created")

	resp := dto.FromUser(user)
	return &resp, nil
}

// SetPassword replaces a user's password
func (s *authServiceImpl) SetPassword(ctx context.Context, username, password string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}
	if err := s.userRepo.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.log.Info().Str("user", user.Username).Msg("Password changed")
	return nil
}

func (s *authServiceImpl) issue(user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             pair.ExpiresIn,
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: pair.RefreshExpiresIn,
		},
		User: dto.FromUser(user),
	}, nil
}

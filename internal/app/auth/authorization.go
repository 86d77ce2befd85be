package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// Authorization errors that aren't in the central apperrors
var (
	ErrNotStaff       = errors.New("only staff members can perform this action")
	ErrNotSuperuser   = errors.New("only superusers can perform this action")
	ErrNoPrincipal    = errors.New("no authenticated user in context")
	ErrNotFileOwner   = errors.New("you don't have permission for this file")
	ErrInactiveCaller = errors.New("user account is disabled")
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID      int64
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

// IsStaffMember reports whether the caller may run staff-only operations
func (p *Principal) IsStaffMember() bool {
	return p.IsStaff || p.IsSuperuser
}

type principalKey struct{}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal
func PrincipalFrom(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}

// userGetter is the part of the user store the authorization checks need
type userGetter interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	userRepo userGetter
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo userGetter) *AuthorizationService {
	return &AuthorizationService{userRepo: userRepo}
}

// CurrentUser loads the caller's account and rejects disabled accounts.
// Tokens outlive account changes, so the flags are re-read from the store.
func (s *AuthorizationService) CurrentUser(ctx context.Context) (*models.User, error) {
	p, err := PrincipalFrom(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			logger.Error().Err(err).Int64("userID", p.UserID).Msg("Error getting user by ID in CurrentUser")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrPermissionDenied, ErrInactiveCaller.Error())
	}
	return user, nil
}

// ValidateStaff returns an error unless the caller is staff or a superuser
func (s *AuthorizationService) ValidateStaff(ctx context.Context) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !user.IsStaffMember() {
		return apperrors.NewForbiddenError(ErrNotStaff.Error())
	}
	return nil
}

// ValidateSuperuser returns an error unless the caller is a superuser
func (s *AuthorizationService) ValidateSuperuser(ctx context.Context) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !user.IsSuperuser {
		return apperrors.NewForbiddenError(ErrNotSuperuser.Error())
	}
	return nil
}

// CanManageFile reports whether user may change or delete f. Owners manage
// their own files; superusers manage every file.
func CanManageFile(user *models.User, f *models.ProgramOutcomeFile) bool {
	return user.IsSuperuser || f.UserID == user.ID
}

// ValidateFileAccess returns an error unless the caller may manage f
func (s *AuthorizationService) ValidateFileAccess(ctx context.Context, f *models.ProgramOutcomeFile) (*models.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !CanManageFile(user, f) {
		logger.Warn().
			Int64("userID", user.ID).
			Int64("fileID", f.ID).
			Msg("Rejected access to another user's file")
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("%s: %d", ErrNotFileOwner.Error(), f.ID))
	}
	return user, nil
}

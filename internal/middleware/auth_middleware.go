package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appauth "github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/auth"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appauth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appauth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
	}
}

// JWTAuth validates the access token and stores the caller in the request
// context
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Swagger UI sometimes sends the token as a query parameter
		if authHeader == "" {
			authHeader = c.Query("token")
		}

		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := tokenFromHeader(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString, auth.TokenKindAccess)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed")
			errorDetail = errorDetail.WithDetails(errorDetails)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		principal := &appauth.Principal{
			UserID:      claims.UserID,
			Username:    claims.Username,
			IsStaff:     claims.IsStaff,
			IsSuperuser: claims.IsSuperuser,
		}
		c.Request = c.Request.WithContext(appauth.WithPrincipal(c.Request.Context(), principal))
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// tokenFromHeader accepts "Bearer <jwt>", a raw JWT, or either wrapped in
// quotes
func tokenFromHeader(header string) (string, error) {
	header = strings.Trim(strings.TrimSpace(header), "\"'")
	if strings.Count(header, ".") == 2 && !strings.HasPrefix(header, "Bearer ") {
		return header, nil
	}
	return auth.ExtractBearerToken(header)
}

// StaffRequired lets only staff members and superusers through. The account
// is reloaded, so a revoked flag takes effect before the token expires.
func (m *AuthMiddleware) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authz.ValidateStaff(c.Request.Context()); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Next()
	}
}

// SuperuserRequired lets only superusers through
func (m *AuthMiddleware) SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authz.ValidateSuperuser(c.Request.Context()); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Next()
	}
}

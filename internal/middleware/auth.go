package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/response"
	"launchpad/internal/security"
)

const (
	currentUserKey    = "current_user"
	AccessTokenCookie = "accessToken"
)

type AccessVerifier interface {
	VerifyAccessToken(tokenStr string) (*security.AccessClaims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Auth rejects the request unless it carries a valid access token for an
// active user. The sanitised user is stored under "current_user".
func Auth(tokens AccessVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := accessToken(c)
		if tokenStr == "" {
			response.Error(c, apperr.Unauthorized("missing credential"))
			return
		}

		user, err := resolve(c, tokens, users, tokenStr)
		if err != nil {
			response.Error(c, apperr.From(err))
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid credential is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens AccessVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := accessToken(c); tokenStr != "" {
			if user, err := resolve(c, tokens, users, tokenStr); err == nil {
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

func resolve(c *gin.Context, tokens AccessVerifier, users UserFinder, tokenStr string) (models.User, error) {
	claims, err := tokens.VerifyAccessToken(tokenStr)
	if err != nil {
		return models.User{}, apperr.Unauthorized("invalid token")
	}

	user, err := users.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.Unauthorized("user not found")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, apperr.Unauthorized("user not found")
	}
	return user.Sanitized(), nil
}

// accessToken prefers the Authorization header over the cookie.
func accessToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentUser returns the user attached by Auth or OptionalAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// Viewer is CurrentUser as a pointer, nil for anonymous requests.
func Viewer(c *gin.Context) *models.User {
	if user, ok := CurrentUser(c); ok {
		return &user
	}
	return nil
}

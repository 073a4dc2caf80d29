package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/service"
)

const userContextKey = "currentUser"

// Protect rejects the request unless it carries a valid session token,
// either as a Bearer header or the jwt cookie. The resolved user is
// stored on the context for downstream handlers.
func Protect(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortWithError(c, apperror.New(apperror.KindUnauthenticated,
				"you are not logged in, please log in to get access"))
			return
		}

		user, err := authService.VerifyToken(token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// MaybeAuthenticate is the soft counterpart of Protect: it resolves the
// current user when a valid token is present and proceeds anonymously on
// any verification problem. It never fails the request.
func MaybeAuthenticate(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := authService.VerifyToken(token)
		if err == nil {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// RestrictTo allows only the listed roles past. Must run after Protect.
func RestrictTo(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperror.New(apperror.KindUnauthenticated,
				"you are not logged in, please log in to get access"))
			return
		}
		if !allowed[user.Role] {
			abortWithError(c, apperror.New(apperror.KindForbidden,
				"you do not have permission to perform this action"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user Protect stored on the context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie("jwt"); err == nil && cookie != "" && cookie != "loggedout" {
		return cookie
	}
	return ""
}

func abortWithError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	c.AbortWithStatusJSON(kind.Status(), gin.H{
		"status":  kind.StatusWord(),
		"message": apperror.ClientMessage(err),
	})
}

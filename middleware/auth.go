package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUserKey stores the authenticated *models.User.
	ContextUserKey = "user"
	// ContextTokenKey stores the raw bearer token, used by logout.
	ContextTokenKey = "token"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AuthRequired ensures the request carries a valid token for an existing identity.
// Every failure yields the same 401 body.
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := BearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			utils.Sugar.Debugw("auth rejected", "path", ctx.Request.URL.Path, "reason", "missing or malformed authorization header")
			utils.Error(ctx, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := auth.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			utils.Sugar.Debugw("auth rejected", "path", ctx.Request.URL.Path, "reason", err.Error())
			utils.Error(ctx, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextUserIDKey, user.ID)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// CurrentUser returns the identity attached by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

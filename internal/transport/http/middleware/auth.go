package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/model"
	"vidhub/internal/transport/http/response"
)

const (
	ContextUserKey = "user"

	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*model.User, error)
}

// RequireUser resolves the access token (cookie first, then bearer header)
// and stores the public user under ContextUserKey.
func RequireUser(verifier AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := verifier.VerifyAccess(c.Request.Context(), accessToken(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by RequireUser.
func CurrentUser(c *gin.Context) (*model.User, error) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, app.Unauthorized("unauthorized request")
	}
	user, ok := value.(*model.User)
	if !ok || user == nil {
		return nil, app.Unauthorized("unauthorized request")
	}
	return user, nil
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

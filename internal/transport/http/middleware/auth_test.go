package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/app"
	"vidhub/internal/model"
)

type stubVerifier struct {
	users map[string]*model.User
	seen  []string
}

func (v *stubVerifier) VerifyAccess(_ context.Context, token string) (*model.User, error) {
	v.seen = append(v.seen, token)
	if token == "" {
		return nil, app.Unauthorized("unauthorized request")
	}
	user, ok := v.users[token]
	if !ok {
		return nil, app.Unauthorized("invalid access token")
	}
	return user, nil
}

func newGateRouter(v AccessVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireUser(v), func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	return r
}

func TestRequireUser(t *testing.T) {
	v := &stubVerifier{users: map[string]*model.User{
		"cookie-token": {ID: "1", Username: "from-cookie"},
		"header-token": {ID: "2", Username: "from-header"},
	}}
	router := newGateRouter(v)

	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "cookie", cookie: "cookie-token", wantStatus: http.StatusOK, wantBody: "from-cookie"},
		{name: "bearer header", header: "Bearer header-token", wantStatus: http.StatusOK, wantBody: "from-header"},
		{name: "lowercase scheme", header: "bearer header-token", wantStatus: http.StatusOK, wantBody: "from-header"},
		{name: "cookie wins", cookie: "cookie-token", header: "Bearer header-token", wantStatus: http.StatusOK, wantBody: "from-cookie"},
		{name: "absent", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic header-token", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, float64(http.StatusUnauthorized), body["statusCode"])
			assert.Equal(t, []any{}, body["errors"])
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://app.example"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://app.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

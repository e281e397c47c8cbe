package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz_backend/internal/config"
	"quiz_backend/internal/model"
	"quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(cfg), func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	r.GET("/admin", AuthMiddleware(cfg), RoleMiddleware(model.Admin), func(c *gin.Context) {
		util.Success(c, "ok")
	})
	return r
}

func tokenFor(t *testing.T, cfg *config.Config, role model.UserRole) string {
	t.Helper()
	u := &model.User{Username: "u", Role: role}
	u.ID = 42
	token, err := util.GenerateJWT(u, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return token
}

func do(r *gin.Engine, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	r := newRouter(cfg)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "garbage"))

	other := &config.Config{JWT: config.JWTConfig{Secret: "other"}}
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", tokenFor(t, other, model.Student)))

	assert.Equal(t, http.StatusOK, do(r, "/me", tokenFor(t, cfg, model.Student)))
}

func TestRoleMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	r := newRouter(cfg)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", tokenFor(t, cfg, model.Student)))
	assert.Equal(t, http.StatusOK, do(r, "/admin", tokenFor(t, cfg, model.Admin)))
}

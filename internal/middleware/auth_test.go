package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/models"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeAuth map[string]*models.User

func (f fakeAuth) Authenticate(ctx context.Context, token string) (*models.User, error) {
	user, ok := f[token]
	if !ok {
		return nil, services.ErrUnauthenticated
	}
	if user.IsBanned {
		return nil, services.ErrForbidden
	}
	return user, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := fakeAuth{
		"user":   {ID: "u", Role: models.RoleUser},
		"mod":    {ID: "m", Role: models.RoleModerator},
		"admin":  {ID: "a", Role: models.RoleAdmin},
		"banned": {ID: "b", Role: models.RoleAdmin, IsBanned: true},
	}
	ok := func(c *gin.Context) { c.String(http.StatusOK, CurrentUser(c).ID) }

	r := gin.New()
	authed := r.Group("/", AuthRequired(auth))
	authed.GET("/me", ok)
	authed.GET("/mod", RequireRole(models.RoleModerator), ok)
	authed.GET("/admin", RequireRole(models.RoleAdmin), ok)
	return r
}

func TestAuthRequired(t *testing.T) {
	r := newRouter()

	tests := []struct {
		path, header string
		want         int
	}{
		{"/me", "", http.StatusUnauthorized},
		{"/me", "Bearer nope", http.StatusUnauthorized},
		{"/me", "Basic user", http.StatusUnauthorized},
		{"/me", "Bearer banned", http.StatusForbidden},
		{"/me", "Bearer user", http.StatusOK},
		{"/me", "bearer user", http.StatusOK},
		{"/mod", "Bearer user", http.StatusForbidden},
		{"/mod", "Bearer mod", http.StatusOK},
		{"/mod", "Bearer admin", http.StatusOK},
		{"/admin", "Bearer mod", http.StatusForbidden},
		{"/admin", "Bearer admin", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %q", tt.path, tt.header)
	}
}

func TestRequireRoleWithoutUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRole(models.RoleUser), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

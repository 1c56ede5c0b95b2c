package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loyalty_points/internal/config"
	"loyalty_points/internal/db"
	"loyalty_points/internal/domain"
	"loyalty_points/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "middleware-secret"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Connect(config.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newRouter(gdb *gorm.DB, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(testSecret), LoadUserMiddleware(gdb), RequireRoles(roles...), func(c *gin.Context) {
		user, _ := UserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createUser(t *testing.T, gdb *gorm.DB, role string) domain.User {
	t.Helper()
	branch := domain.Branch{Name: "B", Address: "A"}
	require.NoError(t, gdb.Create(&branch).Error)
	user := domain.User{Name: "U", Email: role + "@example.com", Password: "x", Role: role, BranchID: branch.ID}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func TestAuthChain(t *testing.T) {
	gdb := setupDB(t)
	admin := createUser(t, gdb, domain.RoleAdmin)
	r := newRouter(gdb, domain.RoleAdmin, domain.RoleSuperadmin)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	token, err := utils.GenerateJWT(admin.ID, admin.Role, testSecret, time.Hour)
	require.NoError(t, err)
	w := get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@example.com")

	ghost, err := utils.GenerateJWT(9999, domain.RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)
	w = get(r, ghost)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRequireRolesUsesDatabaseRole(t *testing.T) {
	gdb := setupDB(t)
	customer := createUser(t, gdb, domain.RoleCustomer)
	r := newRouter(gdb, domain.RoleSuperadmin)

	// A forged role claim does not matter, the stored role does
	token, err := utils.GenerateJWT(customer.ID, domain.RoleSuperadmin, testSecret, time.Hour)
	require.NoError(t, err)
	w := get(r, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	rl.idle = -time.Second
	rl.Cleanup()
	assert.Empty(t, rl.limiters)
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", NewRateLimiter(0.001, 1).Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		return w
	}
	assert.Equal(t, http.StatusNoContent, do().Code)
	limited := do()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, limited.Body.String())

	var nilLimiter *RateLimiter
	r.POST("/open", nilLimiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/open", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

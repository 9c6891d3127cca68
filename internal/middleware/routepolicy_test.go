package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/emma-hr/emma-api/internal/authz"
	"github.com/emma-hr/emma-api/internal/models"
)

func policyRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, claims)
			c.Next()
		})
	}
	router.Use(RoutePolicy(authz.Default()))
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/", handler)
	router.GET("/admin/blogs", handler)
	router.GET("/my-courses", handler)
	router.GET("/api/courses", handler)
	router.GET("/api/auth/login", handler)
	router.GET(LoginPath, handler)
	return router
}

func perform(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutePolicyAllowsUngatedPaths(t *testing.T) {
	router := policyRouter(nil)
	assert.Equal(t, http.StatusOK, perform(router, "/").Code)
	assert.Equal(t, http.StatusOK, perform(router, "/api/auth/login").Code)
}

func TestRoutePolicyRedirectsAnonymousPages(t *testing.T) {
	router := policyRouter(nil)

	rec := perform(router, "/admin/blogs")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))

	rec = perform(router, "/my-courses")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRoutePolicyAnswersAPIWithJSON(t *testing.T) {
	router := policyRouter(nil)

	rec := perform(router, "/api/courses")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestRoutePolicyGuestDeniedFromAdmin(t *testing.T) {
	claims := &models.JWTClaims{UserID: 9, Role: models.RoleGuest}
	router := policyRouter(claims)

	rec := perform(router, "/admin/blogs")
	assert.Equal(t, http.StatusFound, rec.Code)

	assert.Equal(t, http.StatusOK, perform(router, "/my-courses").Code)
	assert.Equal(t, http.StatusOK, perform(router, "/api/courses").Code)
}

func TestRoutePolicyStaffAllowedIntoAdmin(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleEditor, models.RoleReader} {
		router := policyRouter(&models.JWTClaims{UserID: 2, Role: role})
		assert.Equal(t, http.StatusOK, perform(router, "/admin/blogs").Code, string(role))
	}
}

func TestRoutePolicyLoginPage(t *testing.T) {
	assert.Equal(t, http.StatusOK, perform(policyRouter(nil), LoginPath).Code)

	rec := perform(policyRouter(&models.JWTClaims{UserID: 3, Role: models.RoleGuest}), LoginPath)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/my-courses", rec.Header().Get("Location"))

	rec = perform(policyRouter(&models.JWTClaims{UserID: 1, Role: models.RoleAdmin}), LoginPath)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestRoutePolicyUnknownRoleFailsClosed(t *testing.T) {
	claims := &models.JWTClaims{UserID: 4, Role: models.UserRole("SUPERUSER")}
	router := policyRouter(claims)

	rec := perform(router, "/api/courses")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

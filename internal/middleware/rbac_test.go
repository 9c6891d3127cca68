package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/emma-hr/emma-api/internal/models"
)

// fileRouter mirrors the gating of the attachment routes: reads are open
// to any authenticated user, mutations require staff, cleanup requires an
// admin.
func fileRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, claims)
			c.Next()
		})
	}
	staff := RequireRoles(models.RoleAdmin, models.RoleEditor)
	adminOnly := RequireRoles(models.RoleAdmin)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	router.GET("/api/files", ok)
	router.POST("/api/files", staff, ok)
	router.DELETE("/api/files", staff, ok)
	router.POST("/api/files/cleanup", adminOnly, ok)
	return router
}

func performMethod(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRBACFileMutationsRequireStaff(t *testing.T) {
	guest := fileRouter(&models.JWTClaims{UserID: 9, Role: models.RoleGuest})

	assert.Equal(t, http.StatusOK, performMethod(guest, http.MethodGet, "/api/files").Code)
	assert.Equal(t, http.StatusForbidden, performMethod(guest, http.MethodPost, "/api/files").Code)
	assert.Equal(t, http.StatusForbidden, performMethod(guest, http.MethodDelete, "/api/files").Code)
	assert.Equal(t, http.StatusForbidden, performMethod(guest, http.MethodPost, "/api/files/cleanup").Code)

	editor := fileRouter(&models.JWTClaims{UserID: 4, Role: models.RoleEditor})
	assert.Equal(t, http.StatusOK, performMethod(editor, http.MethodPost, "/api/files").Code)
	assert.Equal(t, http.StatusForbidden, performMethod(editor, http.MethodPost, "/api/files/cleanup").Code)
}

func TestRBACCleanupAllowsAdmin(t *testing.T) {
	admin := fileRouter(&models.JWTClaims{UserID: 1, Role: models.RoleAdmin})

	assert.Equal(t, http.StatusOK, performMethod(admin, http.MethodPost, "/api/files/cleanup").Code)
	assert.Equal(t, http.StatusOK, performMethod(admin, http.MethodDelete, "/api/files").Code)
}

func TestRBACMissingClaimsIsUnauthorized(t *testing.T) {
	router := fileRouter(nil)
	assert.Equal(t, http.StatusUnauthorized, performMethod(router, http.MethodPost, "/api/files").Code)
}

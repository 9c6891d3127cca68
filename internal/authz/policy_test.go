package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hr/emma-api/internal/models"
)

func principal(role models.UserRole) *Principal {
	return &Principal{ID: 1, Role: role}
}

func TestAuthorizeAdminRoutes(t *testing.T) {
	policy := Default()

	assert.Equal(t, Deny, policy.Authorize("/admin/blogs", principal(models.RoleGuest)))
	assert.Equal(t, Allow, policy.Authorize("/admin/blogs", principal(models.RoleEditor)))
	assert.Equal(t, Allow, policy.Authorize("/admin", principal(models.RoleAdmin)))
	assert.Equal(t, Allow, policy.Authorize("/admin/contacts/5", principal(models.RoleReader)))
	assert.Equal(t, Deny, policy.Authorize("/admin", nil))
}

func TestAuthorizeAuthenticatedRoutes(t *testing.T) {
	policy := Default()

	assert.Equal(t, Allow, policy.Authorize("/my-courses/5", principal(models.RoleGuest)))
	assert.Equal(t, Deny, policy.Authorize("/my-courses/5", nil))
	assert.Equal(t, Allow, policy.Authorize("/api/courses", principal(models.RoleGuest)))
	assert.Equal(t, Deny, policy.Authorize("/api/certificates/3", nil))
	assert.Equal(t, Allow, policy.Authorize("/api/assignments", principal(models.RoleReader)))
}

func TestAuthorizePublicRoutes(t *testing.T) {
	policy := Default()

	assert.Equal(t, Allow, policy.Authorize("/api/auth/session", nil))
	assert.Equal(t, Allow, policy.Authorize("/api/blogs", nil))
	assert.Equal(t, Allow, policy.Authorize("/", nil))
	assert.Equal(t, Allow, policy.Authorize("/careers", nil))
}

func TestAuthorizeUnknownRoleFailsClosed(t *testing.T) {
	policy := Default()

	assert.Equal(t, Deny, policy.Authorize("/admin/blogs", principal(models.UserRole("SUPERVISOR"))))
	assert.Equal(t, Deny, policy.Authorize("/my-courses", principal(models.UserRole(""))))
}

func TestAuthorizePrefixBoundaries(t *testing.T) {
	policy := Default()

	// "/administrator" is not under "/admin".
	assert.Equal(t, Allow, policy.Authorize("/administrator", nil))
	// The longer "/api/auth" prefix wins over any "/api" style rule.
	assert.Equal(t, Allow, policy.Authorize("/api/auth/refresh", nil))
}

func TestAuthorizeFileRoutes(t *testing.T) {
	policy := Default()

	assert.Equal(t, Allow, policy.Authorize("/api/files", principal(models.RoleGuest)))
	assert.Equal(t, Deny, policy.Authorize("/api/files", nil))

	// Cleanup walks the whole upload store and is reserved to admins.
	assert.Equal(t, Allow, policy.Authorize("/api/files/cleanup", principal(models.RoleAdmin)))
	assert.Equal(t, Deny, policy.Authorize("/api/files/cleanup", principal(models.RoleEditor)))
	assert.Equal(t, Deny, policy.Authorize("/api/files/cleanup", principal(models.RoleGuest)))
}

func TestLoginRedirect(t *testing.T) {
	require.Equal(t, "/my-courses", LoginRedirect(models.RoleGuest))
	require.Equal(t, "/admin", LoginRedirect(models.RoleAdmin))
	require.Equal(t, "/admin", LoginRedirect(models.RoleEditor))
	require.Equal(t, "/admin", LoginRedirect(models.RoleReader))
	require.Equal(t, "/", LoginRedirect(models.UserRole("unknown")))
}

func TestGated(t *testing.T) {
	policy := Default()

	assert.True(t, policy.Gated("/admin/slides"))
	assert.True(t, policy.Gated("/my-courses"))
	assert.False(t, policy.Gated("/api/auth/login"))
	assert.False(t, policy.Gated("/careers"))
}

func TestLongestPrefixWinsOnOverlap(t *testing.T) {
	policy := New([]Rule{
		{Prefix: "/api", Requirement: AnyAuthenticated},
		{Prefix: "/api/public", Requirement: Public},
	})

	assert.Equal(t, Allow, policy.Authorize("/api/public/feed", nil))
	assert.Equal(t, Deny, policy.Authorize("/api/other", nil))
}

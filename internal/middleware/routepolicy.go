package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emma-hr/emma-api/internal/authz"
	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/response"
)

// LoginPath is where anonymous browsers land when a page is gated.
const LoginPath = "/login"

// RoutePolicy evaluates the route authorization table against the request
// path. API paths answer with JSON errors; page paths redirect anonymous
// visitors to the login form. Run it after OptionalJWT so claims are
// available when present.
func RoutePolicy(policy *authz.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		var principal *authz.Principal
		if claimsValue, ok := c.Get(ContextUserKey); ok {
			claims := claimsValue.(*models.JWTClaims)
			principal = &authz.Principal{ID: claims.UserID, Role: claims.Role}
		}

		// An authenticated visitor has no business on the login page.
		if path == LoginPath && principal != nil {
			c.Redirect(http.StatusFound, authz.LoginRedirect(principal.Role))
			c.Abort()
			return
		}

		if policy.Authorize(path, principal) == authz.Allow {
			c.Next()
			return
		}

		if !strings.HasPrefix(path, "/api") {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		if principal == nil {
			response.Error(c, appErrors.ErrUnauthorized)
		} else {
			response.Error(c, appErrors.ErrForbidden)
		}
		c.Abort()
	}
}

package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/room-booking/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth ran
// first and stored the role under "role".  Other callers get 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireAdmin admits only ADMIN callers.
func RequireAdmin() echo.MiddlewareFunc { return RequireRole(model.RoleAdmin) }

// CurrentRequester returns the authenticated caller set by JWTAuth.  ok is
// false on routes without JWTAuth.
func CurrentRequester(c echo.Context) (model.Requester, bool) {
	id, ok := c.Get(CtxUserID).(int64)
	if !ok || id <= 0 {
		return model.Requester{}, false
	}
	admin, _ := c.Get(CtxIsAdmin).(bool)
	return model.Requester{UserID: id, IsAdmin: admin}, true
}

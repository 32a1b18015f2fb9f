package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole enforces that the authenticated user carries exactly the
// given role.  It assumes JWTAuth ran earlier in the chain.
func RequireRole(role string) echo.MiddlewareFunc {
	return RequireAnyRole(role)
}

// RequireAnyRole enforces that the authenticated user's role is one of the
// allowed set.  Requests with a missing or unknown role are rejected with
// 403 Forbidden.
func RequireAnyRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := GetIdentity(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "Autenticación requerida",
				})
			}
			if !allowed[ident.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "No tienes permisos para realizar esta acción",
				})
			}
			return next(c)
		}
	}
}

// RequirePermission enforces exact membership of a permission string in the
// authenticated user's permission list.
func RequirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := GetIdentity(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "Autenticación requerida",
				})
			}
			if !ident.HasPermission(perm) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "Permisos insuficientes",
				})
			}
			return next(c)
		}
	}
}

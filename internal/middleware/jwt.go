package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/utils"
)

// identityKey is the context key under which JWTAuth stores the resolved
// Identity for handlers and downstream middleware.
const identityKey = "identity"

// IdentityLoader resolves a verified token subject into the enriched
// Identity (user + role + permissions).  *repository.UserRepo satisfies it.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID uint64) (model.Identity, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and attaches the resolved Identity to the request context.  The token
// only proves the subject; the user's current state (existence, active
// flag, verified email) and role are loaded fresh on every request, so a
// deactivated user is locked out immediately even while holding a
// still-valid token.
func JWTAuth(secret string, users IdentityLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "Token de acceso requerido",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				// expired and invalid tokens are reported distinctly
				msg := "Token inválido"
				if errors.Is(err, utils.ErrTokenExpired) {
					msg = "Token expirado"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			ident, err := users.LoadIdentity(ctx, userID)
			if err != nil {
				switch {
				case errors.Is(err, repository.ErrNotFound):
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "message": "Usuario no encontrado",
					})
				case errors.Is(err, repository.ErrUserInactive):
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "message": "Usuario inactivo",
					})
				case errors.Is(err, repository.ErrEmailUnverified):
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "message": "Email no verificado",
					})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"success": false, "message": "Error interno del servidor",
				})
			}

			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

// GetIdentity returns the Identity stored by JWTAuth.  The second return is
// false on unauthenticated requests.
func GetIdentity(c echo.Context) (model.Identity, bool) {
	ident, ok := c.Get(identityKey).(model.Identity)
	return ident, ok
}

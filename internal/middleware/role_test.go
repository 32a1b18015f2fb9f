package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
)

func runGate(t *testing.T, mw echo.MiddlewareFunc, ident *model.Identity) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ident != nil {
		c.Set(identityKey, *ident)
	}
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := &model.Identity{ID: 1, Role: "admin"}
	asesor := &model.Identity{ID: 2, Role: "asesor"}

	assert.Equal(t, http.StatusOK, runGate(t, RequireRole("admin"), admin))
	assert.Equal(t, http.StatusForbidden, runGate(t, RequireRole("admin"), asesor))
	assert.Equal(t, http.StatusUnauthorized, runGate(t, RequireRole("admin"), nil))
}

func TestRequireAnyRole(t *testing.T) {
	t.Parallel()

	supervisor := &model.Identity{ID: 3, Role: "supervisor"}
	asesor := &model.Identity{ID: 4, Role: "asesor"}
	noRole := &model.Identity{ID: 5}

	mw := RequireAnyRole("admin", "supervisor")
	assert.Equal(t, http.StatusOK, runGate(t, mw, supervisor))
	assert.Equal(t, http.StatusForbidden, runGate(t, mw, asesor))
	assert.Equal(t, http.StatusForbidden, runGate(t, mw, noRole))
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	writer := &model.Identity{ID: 1, Role: "admin", Permissions: []string{"users:read", "users:write"}}
	reader := &model.Identity{ID: 2, Role: "supervisor", Permissions: []string{"users:read"}}

	mw := RequirePermission("users:write")
	assert.Equal(t, http.StatusOK, runGate(t, mw, writer))
	assert.Equal(t, http.StatusForbidden, runGate(t, mw, reader))
	assert.Equal(t, http.StatusUnauthorized, runGate(t, mw, nil))
}

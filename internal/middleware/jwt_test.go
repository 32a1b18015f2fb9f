package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/utils"
)

const jwtTestSecret = "jwt-test-secret"

// fakeLoader serves canned identities or errors per user id.
type fakeLoader struct {
	idents map[uint64]model.Identity
	errs   map[uint64]error
}

func (f *fakeLoader) LoadIdentity(_ context.Context, userID uint64) (model.Identity, error) {
	if err, ok := f.errs[userID]; ok {
		return model.Identity{}, err
	}
	if id, ok := f.idents[userID]; ok {
		return id, nil
	}
	return model.Identity{}, repository.ErrNotFound
}

func runJWT(t *testing.T, loader IdentityLoader, authHeader string) (*httptest.ResponseRecorder, model.Identity, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		ident model.Identity
		seen  bool
	)
	handler := JWTAuth(jwtTestSecret, loader)(func(c echo.Context) error {
		ident, seen = GetIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, ident, seen
}

func TestJWTAuthSuccess(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{idents: map[uint64]model.Identity{
		7: {ID: 7, Email: "ana@example.com", Role: "admin", Permissions: []string{"users:write"}},
	}}
	tok, err := utils.NewAccessToken(jwtTestSecret, 7, 15)
	require.NoError(t, err)

	rec, ident, seen := runJWT(t, loader, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	assert.Equal(t, uint64(7), ident.ID)
	assert.Equal(t, "admin", ident.Role)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	t.Parallel()

	rec, _, seen := runJWT(t, &fakeLoader{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestJWTAuthExpired(t *testing.T) {
	t.Parallel()

	tok, err := utils.NewAccessToken(jwtTestSecret, 7, -1)
	require.NoError(t, err)

	rec, _, _ := runJWT(t, &fakeLoader{}, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expirado")
}

func TestJWTAuthInvalid(t *testing.T) {
	t.Parallel()

	rec, _, _ := runJWT(t, &fakeLoader{}, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token inválido")
}

func TestJWTAuthUserStates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"deleted", repository.ErrNotFound, "Usuario no encontrado"},
		{"inactive", repository.ErrUserInactive, "Usuario inactivo"},
		{"unverified", repository.ErrEmailUnverified, "Email no verificado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			loader := &fakeLoader{errs: map[uint64]error{7: tc.err}}
			tok, err := utils.NewAccessToken(jwtTestSecret, 7, 15)
			require.NoError(t, err)

			rec, _, seen := runJWT(t, loader, "Bearer "+tok.Token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
			assert.False(t, seen)
		})
	}
}

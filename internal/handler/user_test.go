package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/service"
)

func deleteUser(t *testing.T, h *UserHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.Delete(c))
	return rec
}

func newTestUserHandler(users UserStore) *UserHandler {
	sessions := service.NewSessionManager(fakeTokens{}, "test-secret", 15, 7)
	return NewUserHandler(config.Config{BcryptCost: 4}, users, nil, sessions)
}

func TestUserDeleteRefusedWithDependents(t *testing.T) {
	t.Parallel()

	h := newTestUserHandler(&fakeUserStore{deleteErr: repository.ErrHasDependents})

	rec := deleteUser(t, h, "7")

	assert.Equal(t, http.StatusConflict, rec.Code)
	success, message := decodeEnvelope(t, rec)
	assert.False(t, success)
	assert.Equal(t, "No se puede eliminar el usuario porque tiene cotizaciones o pólizas asociadas", message)
}

func TestUserDeleteNotFound(t *testing.T) {
	t.Parallel()

	h := newTestUserHandler(&fakeUserStore{deleteErr: repository.ErrNotFound})

	rec := deleteUser(t, h, "7")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, message := decodeEnvelope(t, rec)
	assert.Equal(t, "Usuario no encontrado", message)
}

func TestUserDelete(t *testing.T) {
	t.Parallel()

	h := newTestUserHandler(&fakeUserStore{})

	rec := deleteUser(t, h, "7")

	assert.Equal(t, http.StatusOK, rec.Code)
	success, message := decodeEnvelope(t, rec)
	assert.True(t, success)
	assert.Equal(t, "Usuario eliminado exitosamente", message)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
)

// runExtract pushes one request through ExtractPropietario and reports the
// resolved tenant id plus the response status.
func runExtract(t *testing.T, req *http.Request) (uint64, int) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got uint64
	handler := ExtractPropietario(func(c echo.Context) error {
		got = GetPropietario(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return got, rec.Code
}

func TestExtractPropietarioHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones", nil)
	req.Header.Set("X-Propietario-ID", "7")

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(7), got)
}

func TestExtractPropietarioHeaderBeatsQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones?propietario_id=9", nil)
	req.Header.Set("X-Propietario-ID", "7")

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(7), got)
}

func TestExtractPropietarioQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones?propietario_id=3", nil)

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(3), got)
}

func TestExtractPropietarioBodyOnWrite(t *testing.T) {
	t.Parallel()

	body := `{"nombre":"Ana","propietario_id":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/cotizaciones", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(4), got)
}

func TestExtractPropietarioBodyStringValue(t *testing.T) {
	t.Parallel()

	body := `{"propietario_id":"6"}`
	req := httptest.NewRequest(http.MethodPost, "/api/comentarios", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(6), got)
}

func TestExtractPropietarioBodyIgnoredOnRead(t *testing.T) {
	t.Parallel()

	// GET never consults the body
	body := `{"propietario_id":4}`
	req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones", strings.NewReader(body))

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, DefaultPropietario, got)
}

func TestExtractPropietarioDefault(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones", nil)

	got, code := runExtract(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1), got)
}

func TestExtractPropietarioInvalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"0", "-2", "abc", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones", nil)
		req.Header.Set("X-Propietario-ID", raw)

		_, code := runExtract(t, req)
		assert.Equal(t, http.StatusBadRequest, code, "value %q", raw)
	}
}

func TestExtractPropietarioBodyUnparseableValue(t *testing.T) {
	t.Parallel()

	// present but neither a number nor a string must not fall back to
	// the default tenant
	for _, body := range []string{`{"propietario_id":{}}`, `{"propietario_id":[1]}`, `{"propietario_id":null}`, `{"propietario_id":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/cotizaciones", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		_, code := runExtract(t, req)
		assert.Equal(t, http.StatusBadRequest, code, "body %s", body)
	}
}

func TestExtractPropietarioBodyRestored(t *testing.T) {
	t.Parallel()

	body := `{"nombre":"Ana","propietario_id":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cotizaciones", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ExtractPropietario(func(c echo.Context) error {
		// the handler must still be able to bind the body
		var payload struct {
			Nombre string `json:"nombre"`
		}
		require.NoError(t, c.Bind(&payload))
		assert.Equal(t, "Ana", payload.Nombre)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidatePropietario(t *testing.T) {
	t.Parallel()

	run := func(userID, tenant uint64) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(identityKey, model.Identity{ID: userID, Role: "admin"})
		c.Set(propietarioKey, tenant)

		handler := ValidatePropietario(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, run(5, 7))
	assert.Equal(t, http.StatusOK, run(5, 5))
}

func TestValidatePropietarioUnauthenticated(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(propietarioKey, uint64(1))

	handler := ValidatePropietario(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCotizacionCode(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 12, 30, 45, 0, time.UTC)
	code := newCotizacionCode(now)

	assert.Regexp(t, regexp.MustCompile(`^COT-20260901-\d{6}$`), code)
}

func TestCotizacionReqValidate(t *testing.T) {
	t.Parallel()

	valid := cotizacionReq{Nombre: "Ana", Email: "ana@example.com"}
	assert.Nil(t, valid.validate())

	cases := []struct {
		name  string
		req   cotizacionReq
		field string
	}{
		{"short name", cotizacionReq{Nombre: "A", Email: "a@b.cl"}, "nombre"},
		{"missing email", cotizacionReq{Nombre: "Ana"}, "email"},
		{"bad email", cotizacionReq{Nombre: "Ana", Email: "not-an-email"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.req.validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestComentarioReqValidate(t *testing.T) {
	t.Parallel()

	valid := comentarioReq{Nombre: "Ana", Estrellas: 5, Comentario: "Excelente servicio, muy recomendado."}
	assert.Nil(t, valid.validate())

	cases := []struct {
		name  string
		req   comentarioReq
		field string
	}{
		{"zero stars", comentarioReq{Nombre: "Ana", Estrellas: 0, Comentario: "Excelente servicio."}, "estrellas"},
		{"six stars", comentarioReq{Nombre: "Ana", Estrellas: 6, Comentario: "Excelente servicio."}, "estrellas"},
		{"short comment", comentarioReq{Nombre: "Ana", Estrellas: 3, Comentario: "corto"}, "comentario"},
		{"short name", comentarioReq{Nombre: "A", Estrellas: 3, Comentario: "Excelente servicio."}, "nombre"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.req.validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestRegisterReqValidate(t *testing.T) {
	t.Parallel()

	valid := registerReq{
		Rut:       "12.345.678-9",
		Email:     "ana@example.com",
		Password:  "Secreta123",
		FirstName: "Ana",
		LastName:  "Muñoz",
	}
	assert.Nil(t, valid.validate())

	cases := []struct {
		name  string
		mut   func(r *registerReq)
		field string
	}{
		{"bad rut", func(r *registerReq) { r.Rut = "12345678-9" }, "rut"},
		{"bad email", func(r *registerReq) { r.Email = "nope" }, "email"},
		{"short password", func(r *registerReq) { r.Password = "Ab1" }, "password"},
		{"no uppercase", func(r *registerReq) { r.Password = "secreta123" }, "password"},
		{"no digit", func(r *registerReq) { r.Password = "SecretaAbc" }, "password"},
		{"short first name", func(r *registerReq) { r.FirstName = "A" }, "firstName"},
		{"short last name", func(r *registerReq) { r.LastName = "M" }, "lastName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := valid
			tc.mut(&req)
			errs := req.validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestRutAcceptsVerifierK(t *testing.T) {
	t.Parallel()

	r := registerReq{
		Rut:       "7.654.321-K",
		Email:     "p@example.com",
		Password:  "Secreta123",
		FirstName: "Pedro",
		LastName:  "Rojas",
	}
	assert.Nil(t, r.validate())
}

func TestPagination(t *testing.T) {
	t.Parallel()

	e := echo.New()
	ctxFor := func(query string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/api/cotizaciones?"+query, nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	page, limit := pagination(ctxFor(""), 10)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit = pagination(ctxFor("page=3&limit=25"), 10)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	page, limit = pagination(ctxFor("page=-1&limit=9999"), 10)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)
}

func TestPageMeta(t *testing.T) {
	t.Parallel()

	m := pageMeta(2, 10, 25)
	assert.Equal(t, 2, m["page"])
	assert.Equal(t, 10, m["limit"])
	assert.Equal(t, 25, m["total"])
	assert.Equal(t, 3, m["total_pages"])
}

func TestPathID(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")

	id, err := pathID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.SetParamValues("abc")
	_, err = pathID(c)
	assert.Error(t, err)

	c.SetParamValues("0")
	_, err = pathID(c)
	assert.Error(t, err)
}

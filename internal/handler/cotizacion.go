package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/asesoriasalud/cotizaciones-api/internal/middleware"
	"github.com/asesoriasalud/cotizaciones-api/internal/model"
	"github.com/asesoriasalud/cotizaciones-api/internal/queue"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/service"
)

// CotizacionHandler bundles dependencies for the quote endpoints, public
// and admin.
type CotizacionHandler struct {
	Cotizaciones *repository.CotizacionRepo
	Users        *repository.UserRepo
}

func NewCotizacionHandler(cz *repository.CotizacionRepo, u *repository.UserRepo) *CotizacionHandler {
	return &CotizacionHandler{Cotizaciones: cz, Users: u}
}

// ----- DTOs -----

type cotizacionReq struct {
	Nombre       string `json:"nombre"`
	Apellidos    string `json:"apellidos"`
	Edad         *int   `json:"edad"`
	Telefono     string `json:"telefono"`
	Email        string `json:"email"`
	Isapre       string `json:"isapre"`
	ValorMensual int    `json:"valor_mensual"`
	Clinica      string `json:"clinica"`
	Renta        int    `json:"renta"`
	NumeroCargas int    `json:"numero_cargas"`
	EdadesCargas string `json:"edades_cargas"`
	Mensaje      string `json:"mensaje"`
	Procedencia  string `json:"procedencia"`
	TipoIngreso  string `json:"tipo_ingreso"`
}

type estadoReq struct {
	Estado string `json:"estado"`
}

type cotizacionResp struct {
	model.Cotizacion
	Edad *int `json:"edad"`
}

func toCotizacionResp(c model.Cotizacion) cotizacionResp {
	return cotizacionResp{Cotizacion: c, Edad: c.EdadJSON()}
}

func toCotizacionList(in []model.Cotizacion) []cotizacionResp {
	out := make([]cotizacionResp, 0, len(in))
	for _, c := range in {
		out = append(out, toCotizacionResp(c))
	}
	return out
}

func (r cotizacionReq) validate() map[string]string {
	errs := map[string]string{}
	if n := len(strings.TrimSpace(r.Nombre)); n < 2 || n > 150 {
		errs["nombre"] = "El nombre debe tener entre 2 y 150 caracteres"
	}
	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "El email es obligatorio"
	} else if !emailRe.MatchString(strings.TrimSpace(r.Email)) {
		errs["email"] = "El formato del email no es válido"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r cotizacionReq) toModel(propietario uint64) model.Cotizacion {
	m := model.Cotizacion{
		Nombre:        strings.TrimSpace(r.Nombre),
		Apellidos:     strings.TrimSpace(r.Apellidos),
		Telefono:      strings.TrimSpace(r.Telefono),
		Email:         strings.TrimSpace(r.Email),
		Isapre:        strings.TrimSpace(r.Isapre),
		ValorMensual:  r.ValorMensual,
		Clinica:       strings.TrimSpace(r.Clinica),
		Renta:         r.Renta,
		NumeroCargas:  r.NumeroCargas,
		EdadesCargas:  strings.TrimSpace(r.EdadesCargas),
		Mensaje:       strings.TrimSpace(r.Mensaje),
		Procedencia:   strings.TrimSpace(r.Procedencia),
		TipoIngreso:   strings.TrimSpace(r.TipoIngreso),
		IDPropietario: propietario,
	}
	if r.Edad != nil {
		m.Edad = sql.NullInt64{Int64: int64(*r.Edad), Valid: true}
	}
	return m
}

// newCotizacionCode builds the public COT-YYYYMMDD-NNNNNN code: the date
// plus the last six digits of the submission timestamp.
func newCotizacionCode(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return fmt.Sprintf("COT-%s-%s", now.Format("20060102"), ms[len(ms)-6:])
}

// Create is the public quote submission.  The row is stamped with the
// resolved propietario, then a cotizacion.created event goes to the broker
// so the receipt and admin notification mail off the request path.
func (h *CotizacionHandler) Create(c echo.Context) error {
	var req cotizacionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if errs := req.validate(); errs != nil {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	now := time.Now().UTC()
	cz := req.toModel(middleware.GetPropietario(c))
	cz.CotizacionID = newCotizacionCode(now)
	cz.FechaEnvio = now
	if err := h.Cotizaciones.Create(ctx, &cz); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	admins, err := h.Users.AdminEmails(ctx)
	if err != nil {
		log.Printf("cotizacion: admin email lookup failed: %v", err)
	}
	ev := queue.CotizacionCreatedEvent{
		EventID:       uuid.NewString(),
		CotizacionID:  cz.CotizacionID,
		Nombre:        cz.Nombre,
		Apellidos:     cz.Apellidos,
		Edad:          cz.EdadJSON(),
		Telefono:      cz.Telefono,
		Email:         cz.Email,
		Isapre:        cz.Isapre,
		ValorMensual:  cz.ValorMensual,
		Clinica:       cz.Clinica,
		Renta:         cz.Renta,
		NumeroCargas:  cz.NumeroCargas,
		EdadesCargas:  cz.EdadesCargas,
		Mensaje:       cz.Mensaje,
		Procedencia:   cz.Procedencia,
		TipoIngreso:   cz.TipoIngreso,
		IDPropietario: cz.IDPropietario,
		FechaEnvio:    now.Format(time.RFC3339),
		AdminEmails:   admins,
	}
	go func() {
		// best-effort: submission already succeeded
		_ = service.PublishCotizacionCreated(context.Background(), ev)
	}()

	return ok(c, http.StatusCreated, "Cotización enviada exitosamente. Te contactaremos pronto.", echo.Map{
		"id":            cz.ID,
		"cotizacion_id": cz.CotizacionID,
		"estado":        cz.Estado,
		"fecha_envio":   cz.FechaEnvio,
	})
}

// CreateAdmin stores a quote entered from the admin panel.  No emails.
func (h *CotizacionHandler) CreateAdmin(c echo.Context) error {
	var req cotizacionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if errs := req.validate(); errs != nil {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	now := time.Now().UTC()
	cz := req.toModel(middleware.GetPropietario(c))
	cz.CotizacionID = newCotizacionCode(now)
	cz.FechaEnvio = now
	if err := h.Cotizaciones.Create(ctx, &cz); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusCreated, "Cotización creada exitosamente", toCotizacionResp(cz))
}

// Estado is the public status lookup by COT code.  Only the fields a
// submitter needs come back.
func (h *CotizacionHandler) Estado(c echo.Context) error {
	code := c.Param("cotizacion_id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cz, err := h.Cotizaciones.GetByCode(ctx, code, middleware.GetPropietario(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Cotización no encontrada")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Estado de cotización obtenido", echo.Map{
		"cotizacion_id": cz.CotizacionID,
		"nombre":        cz.Nombre,
		"apellidos":     cz.Apellidos,
		"estado":        cz.Estado,
		"fecha_envio":   cz.FechaEnvio,
	})
}

// List returns a filtered admin page of quotes for the resolved tenant.
func (h *CotizacionHandler) List(c echo.Context) error {
	page, limit := pagination(c, 10)
	f := repository.CotizacionFilter{
		Propietario: middleware.GetPropietario(c),
		Search:      c.QueryParam("search"),
		Estado:      c.QueryParam("estado"),
		Isapre:      c.QueryParam("isapre"),
		Clinica:     c.QueryParam("clinica"),
		Procedencia: c.QueryParam("procedencia"),
		TipoIngreso: c.QueryParam("tipo_ingreso"),
		FechaDesde:  c.QueryParam("fecha_desde"),
		FechaHasta:  c.QueryParam("fecha_hasta"),
	}
	if f.Estado != "" && !model.ValidEstado(f.Estado) {
		return fail(c, http.StatusBadRequest, "Estado de cotización inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, total, err := h.Cotizaciones.List(ctx, f, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Cotizaciones obtenidas exitosamente", echo.Map{
		"cotizaciones": toCotizacionList(items),
		"pagination":   pageMeta(page, limit, total),
	})
}

// Get returns one quote by numeric id, tenant-scoped.
func (h *CotizacionHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cz, err := h.Cotizaciones.GetByID(ctx, id, middleware.GetPropietario(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Cotización no encontrada")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Cotización obtenida exitosamente", toCotizacionResp(cz))
}

type cotizacionUpdateReq struct {
	Nombre       *string `json:"nombre"`
	Apellidos    *string `json:"apellidos"`
	Edad         *int    `json:"edad"`
	Telefono     *string `json:"telefono"`
	Email        *string `json:"email"`
	Isapre       *string `json:"isapre"`
	ValorMensual *int    `json:"valor_mensual"`
	Clinica      *string `json:"clinica"`
	Renta        *int    `json:"renta"`
	NumeroCargas *int    `json:"numero_cargas"`
	EdadesCargas *string `json:"edades_cargas"`
	Mensaje      *string `json:"mensaje"`
	Procedencia  *string `json:"procedencia"`
	TipoIngreso  *string `json:"tipo_ingreso"`
	Estado       *string `json:"estado"`
}

// Update applies a partial admin edit to one quote.
func (h *CotizacionHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req cotizacionUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if req.Email != nil && !emailRe.MatchString(strings.TrimSpace(*req.Email)) {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos",
			map[string]string{"email": "El formato del email no es válido"})
	}
	if req.Estado != nil && !model.ValidEstado(*req.Estado) {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos",
			map[string]string{"estado": "Estado de cotización inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	prop := middleware.GetPropietario(c)
	err = h.Cotizaciones.Update(ctx, id, prop, repository.CotizacionUpdate{
		Nombre:       req.Nombre,
		Apellidos:    req.Apellidos,
		Edad:         req.Edad,
		Telefono:     req.Telefono,
		Email:        req.Email,
		Isapre:       req.Isapre,
		ValorMensual: req.ValorMensual,
		Clinica:      req.Clinica,
		Renta:        req.Renta,
		NumeroCargas: req.NumeroCargas,
		EdadesCargas: req.EdadesCargas,
		Mensaje:      req.Mensaje,
		Procedencia:  req.Procedencia,
		TipoIngreso:  req.TipoIngreso,
		Estado:       req.Estado,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Cotización no encontrada")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	cz, err := h.Cotizaciones.GetByID(ctx, id, prop)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Cotización actualizada exitosamente", toCotizacionResp(cz))
}

// UpdateEstado moves one quote through the workflow.
func (h *CotizacionHandler) UpdateEstado(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req estadoReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if !model.ValidEstado(req.Estado) {
		return fail(c, http.StatusBadRequest, "Estado de cotización inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Cotizaciones.UpdateEstado(ctx, id, middleware.GetPropietario(c), req.Estado)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Cotización no encontrada")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Estado actualizado exitosamente", echo.Map{
		"id":     id,
		"estado": req.Estado,
	})
}

// Delete removes one quote.
func (h *CotizacionHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Cotizaciones.Delete(ctx, id, middleware.GetPropietario(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Cotización no encontrada")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Cotización eliminada exitosamente", nil)
}

// Options lists the distinct filter values present in the tenant's data.
func (h *CotizacionHandler) Options(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	opts, err := h.Cotizaciones.Options(ctx, middleware.GetPropietario(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Opciones de filtros obtenidas", opts)
}

// Stats returns the per-estado dashboard counts.
func (h *CotizacionHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	s, err := h.Cotizaciones.Stats(ctx, middleware.GetPropietario(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Estadísticas obtenidas exitosamente", s)
}

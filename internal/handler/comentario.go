package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asesoriasalud/cotizaciones-api/internal/middleware"
	"github.com/asesoriasalud/cotizaciones-api/internal/model"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
)

// ComentarioHandler bundles dependencies for the testimonial endpoints.
type ComentarioHandler struct {
	Comentarios *repository.ComentarioRepo
}

func NewComentarioHandler(cm *repository.ComentarioRepo) *ComentarioHandler {
	return &ComentarioHandler{Comentarios: cm}
}

type comentarioReq struct {
	Nombre     string `json:"nombre"`
	Estrellas  int    `json:"estrellas"`
	Comentario string `json:"comentario"`
	Ver        *bool  `json:"ver"` // admin create only; ignored on the public form
}

func (r comentarioReq) validate() map[string]string {
	errs := map[string]string{}
	if n := len(strings.TrimSpace(r.Nombre)); n < 2 || n > 100 {
		errs["nombre"] = "El nombre debe tener entre 2 y 100 caracteres"
	}
	if r.Estrellas < 1 || r.Estrellas > 5 {
		errs["estrellas"] = "Las estrellas deben ser un número entre 1 y 5"
	}
	if n := len(strings.TrimSpace(r.Comentario)); n < 10 || n > 1000 {
		errs["comentario"] = "El comentario debe tener entre 10 y 1000 caracteres"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Create is the public testimonial form.  New testimonials stay hidden
// until an administrator approves them.
func (h *ComentarioHandler) Create(c echo.Context) error {
	var req comentarioReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if errs := req.validate(); errs != nil {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cm := model.Comentario{
		Nombre:        strings.TrimSpace(req.Nombre),
		Estrellas:     req.Estrellas,
		Comentario:    strings.TrimSpace(req.Comentario),
		Ver:           false,
		IDPropietario: middleware.GetPropietario(c),
	}
	if err := h.Comentarios.Create(ctx, &cm); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusCreated, "Comentario enviado exitosamente. Será revisado por nuestro equipo.", echo.Map{
		"id": cm.ID,
	})
}

// CreateAdmin stores a testimonial from the admin panel with an explicit
// visibility flag.
func (h *ComentarioHandler) CreateAdmin(c echo.Context) error {
	var req comentarioReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if errs := req.validate(); errs != nil {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ver := false
	if req.Ver != nil {
		ver = *req.Ver
	}
	cm := model.Comentario{
		Nombre:        strings.TrimSpace(req.Nombre),
		Estrellas:     req.Estrellas,
		Comentario:    strings.TrimSpace(req.Comentario),
		Ver:           ver,
		IDPropietario: middleware.GetPropietario(c),
	}
	if err := h.Comentarios.Create(ctx, &cm); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusCreated, "Comentario creado exitosamente desde el panel de administración.", cm)
}

// ListPublic returns the approved testimonials with the star average.
func (h *ComentarioHandler) ListPublic(c echo.Context) error {
	page, limit := pagination(c, 10)
	prop := middleware.GetPropietario(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	visible := true
	items, total, err := h.Comentarios.List(ctx, prop, &visible, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	avg, err := h.Comentarios.AverageStars(ctx, prop)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Comentarios obtenidos exitosamente", echo.Map{
		"comentarios":        items,
		"promedio_estrellas": avg,
		"pagination":         pageMeta(page, limit, total),
	})
}

// List returns every testimonial of the tenant, visible or not.  An
// optional ver query param narrows to one visibility.
func (h *ComentarioHandler) List(c echo.Context) error {
	page, limit := pagination(c, 10)

	var ver *bool
	switch c.QueryParam("ver") {
	case "true":
		v := true
		ver = &v
	case "false":
		v := false
		ver = &v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, total, err := h.Comentarios.List(ctx, middleware.GetPropietario(c), ver, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Comentarios obtenidos exitosamente", echo.Map{
		"comentarios": items,
		"pagination":  pageMeta(page, limit, total),
	})
}

// Get returns one testimonial, tenant-scoped.
func (h *ComentarioHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cm, err := h.Comentarios.GetByID(ctx, id, middleware.GetPropietario(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Comentario no encontrado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Comentario obtenido exitosamente", cm)
}

type comentarioUpdateReq struct {
	Nombre     *string `json:"nombre"`
	Estrellas  *int    `json:"estrellas"`
	Comentario *string `json:"comentario"`
	Ver        *bool   `json:"ver"`
}

// Update applies a partial admin edit to one testimonial.
func (h *ComentarioHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req comentarioUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if req.Estrellas != nil && (*req.Estrellas < 1 || *req.Estrellas > 5) {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos",
			map[string]string{"estrellas": "Las estrellas deben ser un número entre 1 y 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	prop := middleware.GetPropietario(c)
	err = h.Comentarios.Update(ctx, id, prop, repository.ComentarioUpdate{
		Nombre:     req.Nombre,
		Estrellas:  req.Estrellas,
		Comentario: req.Comentario,
		Ver:        req.Ver,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Comentario no encontrado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	cm, err := h.Comentarios.GetByID(ctx, id, prop)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Comentario actualizado exitosamente", cm)
}

// ToggleVisibility flips whether one testimonial shows on the public site.
func (h *ComentarioHandler) ToggleVisibility(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	prop := middleware.GetPropietario(c)
	cm, err := h.Comentarios.GetByID(ctx, id, prop)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Comentario no encontrado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	next := !cm.Ver
	if err := h.Comentarios.SetVisibility(ctx, id, prop, next); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	msg := "Comentario ocultado exitosamente"
	if next {
		msg = "Comentario publicado exitosamente"
	}
	cm.Ver = next
	return ok(c, http.StatusOK, msg, cm)
}

// Delete removes one testimonial.
func (h *ComentarioHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Comentarios.Delete(ctx, id, middleware.GetPropietario(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Comentario no encontrado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Comentario eliminado exitosamente", nil)
}

// Stats returns testimonial counts and the visible-star average.
func (h *ComentarioHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	s, err := h.Comentarios.Stats(ctx, middleware.GetPropietario(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Estadísticas de comentarios obtenidas", s)
}

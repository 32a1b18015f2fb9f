package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// propietarioKey is the context key under which the resolved tenant id is
// stored for handlers.
const propietarioKey = "id_propietario"

// DefaultPropietario is the fallback tenant for requests that carry no
// explicit propietario.  Keeps single-tenant deployments working without
// any client change.
const DefaultPropietario uint64 = 1

// ExtractPropietario resolves the tenant a request may touch and attaches
// it to the context.  Resolution order: the X-Propietario-ID header, the
// propietario_id query parameter, and on write verbs the propietario_id
// body field.  First present value wins; a present but non-positive or
// non-numeric value is a 400.
func ExtractPropietario(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get("X-Propietario-ID")
		present := raw != ""
		if !present {
			raw = c.QueryParam("propietario_id")
			present = raw != ""
		}
		if !present {
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				raw, present = propietarioFromBody(c)
			}
		}

		id := DefaultPropietario
		if present {
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || n == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"success": false, "message": "ID de propietario inválido",
				})
			}
			id = n
		}

		c.Set(propietarioKey, id)
		return next(c)
	}
}

// propietarioFromBody peeks at a JSON body for a propietario_id field and
// restores the body so handlers can still bind it.  The second return
// reports whether the field was present; a present field whose value is
// neither a number nor a string comes back empty so parsing rejects it.
func propietarioFromBody(c echo.Context) (string, bool) {
	req := c.Request()
	if req.Body == nil {
		return "", false
	}
	data, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return "", false
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return "", false
	}
	raw, ok := body["propietario_id"]
	if !ok {
		return "", false
	}
	var asNum json.Number
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return asNum.String(), true
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		return asStr, true
	}
	return "", true
}

// ValidatePropietario enforces the self-service ownership model on
// protected admin routes: the authenticated user may only touch the data
// of the propietario matching their own user id.
func ValidatePropietario(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, ok := GetIdentity(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false, "message": "Autenticación requerida",
			})
		}
		if ident.ID != GetPropietario(c) {
			return c.JSON(http.StatusForbidden, echo.Map{
				"success": false, "message": "No tienes permisos para acceder a estos datos",
			})
		}
		return next(c)
	}
}

// GetPropietario returns the tenant id resolved by ExtractPropietario,
// falling back to the default when the middleware did not run.
func GetPropietario(c echo.Context) uint64 {
	if id, ok := c.Get(propietarioKey).(uint64); ok {
		return id
	}
	return DefaultPropietario
}

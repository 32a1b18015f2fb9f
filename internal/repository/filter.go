package repository

import "strings"

// conditions accumulates parameterized WHERE fragments.  It replaces the
// per-handler string concatenation the admin panel grew over time: every
// filtered query goes through the same builder and every value is a bind
// parameter.
type conditions struct {
	parts []string
	args  []any
}

func (c *conditions) add(expr string, args ...any) {
	c.parts = append(c.parts, expr)
	c.args = append(c.args, args...)
}

// clause renders "WHERE a AND b" (empty string when no conditions).
func (c *conditions) clause() string {
	if len(c.parts) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.parts, " AND ")
}

// updates accumulates parameterized SET fragments for partial updates.
type updates struct {
	parts []string
	args  []any
}

func (u *updates) set(col string, val any) {
	u.parts = append(u.parts, col+" = ?")
	u.args = append(u.args, val)
}

func (u *updates) empty() bool { return len(u.parts) == 0 }

func (u *updates) clause() string { return "SET " + strings.Join(u.parts, ", ") }

// CotizacionFilter is the validated filter set for the admin cotización
// list.  Propietario is always present; the rest are optional.
type CotizacionFilter struct {
	Propietario uint64
	Search      string // matches nombre, apellidos, email or cotizacion_id
	Estado      string
	Isapre      string
	Clinica     string
	Procedencia string
	TipoIngreso string
	FechaDesde  string // inclusive, YYYY-MM-DD
	FechaHasta  string // inclusive, YYYY-MM-DD
}

// build maps the filter to a parameterized WHERE clause and its arguments.
func (f CotizacionFilter) build() (string, []any) {
	var c conditions
	c.add("id_propietario = ?", f.Propietario)
	if f.Search != "" {
		like := "%" + f.Search + "%"
		c.add("(nombre LIKE ? OR apellidos LIKE ? OR email LIKE ? OR cotizacion_id LIKE ?)",
			like, like, like, like)
	}
	if f.Estado != "" {
		c.add("estado = ?", f.Estado)
	}
	if f.Isapre != "" {
		c.add("isapre LIKE ?", "%"+f.Isapre+"%")
	}
	if f.Clinica != "" {
		c.add("clinica LIKE ?", "%"+f.Clinica+"%")
	}
	if f.Procedencia != "" {
		c.add("procedencia LIKE ?", "%"+f.Procedencia+"%")
	}
	if f.TipoIngreso != "" {
		c.add("tipo_ingreso LIKE ?", "%"+f.TipoIngreso+"%")
	}
	if f.FechaDesde != "" {
		c.add("DATE(fecha_envio) >= ?", f.FechaDesde)
	}
	if f.FechaHasta != "" {
		c.add("DATE(fecha_envio) <= ?", f.FechaHasta)
	}
	return c.clause(), c.args
}

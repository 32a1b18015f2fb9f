package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCotizacionFilterPropietarioOnly(t *testing.T) {
	t.Parallel()

	where, args := CotizacionFilter{Propietario: 3}.build()
	assert.Equal(t, "WHERE id_propietario = ?", where)
	assert.Equal(t, []any{uint64(3)}, args)
}

func TestCotizacionFilterAllFields(t *testing.T) {
	t.Parallel()

	f := CotizacionFilter{
		Propietario: 1,
		Search:      "ana",
		Estado:      "pendiente",
		Isapre:      "Banmédica",
		Clinica:     "Alemana",
		Procedencia: "web",
		TipoIngreso: "formulario",
		FechaDesde:  "2026-01-01",
		FechaHasta:  "2026-06-30",
	}
	where, args := f.build()

	assert.Equal(t,
		"WHERE id_propietario = ? AND "+
			"(nombre LIKE ? OR apellidos LIKE ? OR email LIKE ? OR cotizacion_id LIKE ?) AND "+
			"estado = ? AND isapre LIKE ? AND clinica LIKE ? AND procedencia LIKE ? AND "+
			"tipo_ingreso LIKE ? AND DATE(fecha_envio) >= ? AND DATE(fecha_envio) <= ?",
		where)
	assert.Equal(t, []any{
		uint64(1),
		"%ana%", "%ana%", "%ana%", "%ana%",
		"pendiente", "%Banmédica%", "%Alemana%", "%web%", "%formulario%",
		"2026-01-01", "2026-06-30",
	}, args)
}

func TestConditionsEmpty(t *testing.T) {
	t.Parallel()

	var c conditions
	assert.Equal(t, "", c.clause())
	assert.Empty(t, c.args)
}

func TestUpdatesBuilder(t *testing.T) {
	t.Parallel()

	var u updates
	assert.True(t, u.empty())

	u.set("estado", "contactado")
	u.set("telefono", "+56 9 1234 5678")

	assert.False(t, u.empty())
	assert.Equal(t, "SET estado = ?, telefono = ?", u.clause())
	assert.Equal(t, []any{"contactado", "+56 9 1234 5678"}, u.args)
}

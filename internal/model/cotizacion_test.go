package model

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEstado(t *testing.T) {
	t.Parallel()

	for _, e := range Estados {
		assert.True(t, ValidEstado(e), e)
	}
	assert.False(t, ValidEstado(""))
	assert.False(t, ValidEstado("archivado"))
	assert.False(t, ValidEstado("Pendiente"))
}

func TestEdadJSON(t *testing.T) {
	t.Parallel()

	var c Cotizacion
	assert.Nil(t, c.EdadJSON())

	c.Edad = sql.NullInt64{Int64: 34, Valid: true}
	got := c.EdadJSON()
	if assert.NotNil(t, got) {
		assert.Equal(t, 34, *got)
	}
}

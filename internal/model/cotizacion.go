package model

import (
	"database/sql"
	"time"
)

// Estado labels a cotización can carry through its workflow.  The admin
// panel moves records through this set; anything else is rejected.
const (
	EstadoPendiente        = "pendiente"
	EstadoEnRevision       = "en_revision"
	EstadoContactado       = "contactado"
	EstadoClienteIngresado = "cliente_ingresado"
	EstadoNuncaRespondio   = "nunca_respondio"
	EstadoCotizado         = "cotizado"
	EstadoCerrado          = "cerrado"
)

// Estados lists every valid estado in workflow order.
var Estados = []string{
	EstadoPendiente,
	EstadoEnRevision,
	EstadoContactado,
	EstadoClienteIngresado,
	EstadoNuncaRespondio,
	EstadoCotizado,
	EstadoCerrado,
}

// ValidEstado reports whether s is a recognized workflow label.
func ValidEstado(s string) bool {
	for _, e := range Estados {
		if e == s {
			return true
		}
	}
	return false
}

// Cotizacion mirrors the 'cotizaciones' table: one public quote request.
// CotizacionID is the human-facing COT-YYYYMMDD-NNNNNN code used for the
// public status lookup; IDPropietario scopes the row to one business owner.
type Cotizacion struct {
	ID            uint64        `json:"id"`
	CotizacionID  string        `json:"cotizacion_id"`
	Nombre        string        `json:"nombre"`
	Apellidos     string        `json:"apellidos"`
	Edad          sql.NullInt64 `json:"-"`
	Telefono      string        `json:"telefono"`
	Email         string        `json:"email"`
	Isapre        string        `json:"isapre"`
	ValorMensual  int           `json:"valor_mensual"`
	Clinica       string        `json:"clinica"`
	Renta         int           `json:"renta"`
	NumeroCargas  int           `json:"numero_cargas"`
	EdadesCargas  string        `json:"edades_cargas"`
	Mensaje       string        `json:"mensaje"`
	Procedencia   string        `json:"procedencia"`
	TipoIngreso   string        `json:"tipo_ingreso"`
	Estado        string        `json:"estado"`
	IDPropietario uint64        `json:"id_propietario"`
	FechaEnvio    time.Time     `json:"fecha_envio"`
}

// EdadJSON exposes the nullable edad column as *int for responses.
func (c Cotizacion) EdadJSON() *int {
	if !c.Edad.Valid {
		return nil
	}
	n := int(c.Edad.Int64)
	return &n
}

// CotizacionStats aggregates counts per estado for the admin dashboard.
type CotizacionStats struct {
	Total            int `json:"total"`
	Pendientes       int `json:"pendientes"`
	EnRevision       int `json:"en_revision"`
	Contactados      int `json:"contactados"`
	ClienteIngresado int `json:"cliente_ingresado"`
	NuncaRespondio   int `json:"nunca_respondio"`
	Cotizados        int `json:"cotizados"`
	Cerrados         int `json:"cerrados"`
}

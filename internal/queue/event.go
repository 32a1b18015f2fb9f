// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into transactional email.
package queue

// CotizacionCreatedEvent is published after a public quote submission is
// stored.  It carries everything downstream consumers need to send the
// client receipt and the admin notification without querying the primary
// database, so a slow mail relay can never delay the HTTP response.
type CotizacionCreatedEvent struct {
	EventID       string   `json:"event_id"`
	CotizacionID  string   `json:"cotizacion_id"`
	Nombre        string   `json:"nombre"`
	Apellidos     string   `json:"apellidos"`
	Edad          *int     `json:"edad"`
	Telefono      string   `json:"telefono"`
	Email         string   `json:"email"`
	Isapre        string   `json:"isapre"`
	ValorMensual  int      `json:"valor_mensual"`
	Clinica       string   `json:"clinica"`
	Renta         int      `json:"renta"`
	NumeroCargas  int      `json:"numero_cargas"`
	EdadesCargas  string   `json:"edades_cargas"`
	Mensaje       string   `json:"mensaje"`
	Procedencia   string   `json:"procedencia"`
	TipoIngreso   string   `json:"tipo_ingreso"`
	IDPropietario uint64   `json:"id_propietario"`
	FechaEnvio    string   `json:"fecha_envio"`
	AdminEmails   []string `json:"admin_emails"`
}

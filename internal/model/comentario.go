package model

import "time"

// Comentario mirrors the 'comentarios' table: a visitor testimonial with a
// star rating.  Ver controls public visibility; newly submitted testimonials
// stay hidden until an administrator approves them.
type Comentario struct {
	ID            uint64    `json:"id"`
	Nombre        string    `json:"nombre"`
	Estrellas     int       `json:"estrellas"`
	Comentario    string    `json:"comentario"`
	Ver           bool      `json:"ver"`
	IDPropietario uint64    `json:"id_propietario"`
	FechaCreacion time.Time `json:"fecha_creacion"`
}

// ComentarioStats aggregates testimonial counts and the average rating of
// the visible ones.
type ComentarioStats struct {
	Total    int     `json:"total"`
	Visibles int     `json:"visibles"`
	Ocultos  int     `json:"ocultos"`
	Promedio float64 `json:"promedio_estrellas"`
}

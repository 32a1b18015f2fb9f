package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
)

// ComentarioRepo persists visitor testimonials, scoped by propietario like
// cotizaciones.
type ComentarioRepo struct{ DB *sql.DB }

func NewComentarioRepo(db *sql.DB) *ComentarioRepo { return &ComentarioRepo{DB: db} }

const comentarioCols = "id, nombre, estrellas, comentario, ver, id_propietario, fecha_creacion"

func scanComentario(s interface{ Scan(...any) error }) (model.Comentario, error) {
	var c model.Comentario
	err := s.Scan(&c.ID, &c.Nombre, &c.Estrellas, &c.Comentario, &c.Ver,
		&c.IDPropietario, &c.FechaCreacion)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// Create inserts a testimonial and fills in the generated id.
func (r *ComentarioRepo) Create(ctx context.Context, c *model.Comentario) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comentarios (nombre, estrellas, comentario, ver, id_propietario) VALUES (?,?,?,?,?)",
		c.Nombre, c.Estrellas, c.Comentario, c.Ver, c.IDPropietario)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID fetches one testimonial visible to the given propietario.
func (r *ComentarioRepo) GetByID(ctx context.Context, id, propietario uint64) (model.Comentario, error) {
	return scanComentario(r.DB.QueryRowContext(ctx,
		"SELECT "+comentarioCols+" FROM comentarios WHERE id=? AND id_propietario=? LIMIT 1",
		id, propietario))
}

// List returns a page of testimonials with the total count.  When ver is
// non-nil only rows with that visibility are returned; the public listing
// passes ver=true.
func (r *ComentarioRepo) List(ctx context.Context, propietario uint64, ver *bool, page, limit int) ([]model.Comentario, int, error) {
	var c conditions
	c.add("id_propietario = ?", propietario)
	if ver != nil {
		c.add("ver = ?", *ver)
	}
	where := c.clause()

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comentarios "+where, c.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(c.args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+comentarioCols+" FROM comentarios "+where+
			" ORDER BY fecha_creacion DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Comentario
	for rows.Next() {
		cm, err := scanComentario(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, cm)
	}
	return out, total, rows.Err()
}

// AverageStars returns the mean rating of the propietario's visible
// testimonials (0 when there are none).
func (r *ComentarioRepo) AverageStars(ctx context.Context, propietario uint64) (float64, error) {
	var avg float64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(estrellas),0) FROM comentarios WHERE id_propietario=? AND ver=TRUE",
		propietario).Scan(&avg)
	return avg, err
}

// ComentarioUpdate lists the optional fields of an admin edit.
type ComentarioUpdate struct {
	Nombre     *string
	Estrellas  *int
	Comentario *string
	Ver        *bool
}

// Update applies the non-nil fields of upd to a row owned by propietario.
func (r *ComentarioRepo) Update(ctx context.Context, id, propietario uint64, upd ComentarioUpdate) error {
	var u updates
	if upd.Nombre != nil {
		u.set("nombre", *upd.Nombre)
	}
	if upd.Estrellas != nil {
		u.set("estrellas", *upd.Estrellas)
	}
	if upd.Comentario != nil {
		u.set("comentario", *upd.Comentario)
	}
	if upd.Ver != nil {
		u.set("ver", *upd.Ver)
	}
	if u.empty() {
		return nil
	}
	args := append(u.args, id, propietario)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comentarios "+u.clause()+" WHERE id=? AND id_propietario=?", args...)
	if err != nil {
		return err
	}
	return notFoundOnZero(ctx, r.DB,
		"SELECT 1 FROM comentarios WHERE id=? AND id_propietario=? LIMIT 1", res, id, propietario)
}

// SetVisibility flips the public flag of one testimonial.
func (r *ComentarioRepo) SetVisibility(ctx context.Context, id, propietario uint64, ver bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comentarios SET ver=? WHERE id=? AND id_propietario=?", ver, id, propietario)
	if err != nil {
		return err
	}
	return notFoundOnZero(ctx, r.DB,
		"SELECT 1 FROM comentarios WHERE id=? AND id_propietario=? LIMIT 1", res, id, propietario)
}

// Delete removes a testimonial owned by propietario.
func (r *ComentarioRepo) Delete(ctx context.Context, id, propietario uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM comentarios WHERE id=? AND id_propietario=?", id, propietario)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates testimonial counts and the visible-star average.
func (r *ComentarioRepo) Stats(ctx context.Context, propietario uint64) (model.ComentarioStats, error) {
	var s model.ComentarioStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COUNT(CASE WHEN ver THEN 1 END),
			COUNT(CASE WHEN NOT ver THEN 1 END),
			COALESCE(AVG(CASE WHEN ver THEN estrellas END),0)
		 FROM comentarios WHERE id_propietario=?`, propietario).
		Scan(&s.Total, &s.Visibles, &s.Ocultos, &s.Promedio)
	return s, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
)

// CotizacionRepo persists public quote requests.  Every query is scoped by
// id_propietario: a row never leaves the tenant it was stamped with.
type CotizacionRepo struct{ DB *sql.DB }

func NewCotizacionRepo(db *sql.DB) *CotizacionRepo { return &CotizacionRepo{DB: db} }

const cotizacionCols = `id, cotizacion_id, nombre, apellidos, edad, telefono, email, isapre,
	valor_mensual, clinica, renta, numero_cargas, edades_cargas, COALESCE(mensaje,''),
	procedencia, tipo_ingreso, estado, id_propietario, fecha_envio`

func scanCotizacion(s interface{ Scan(...any) error }) (model.Cotizacion, error) {
	var c model.Cotizacion
	err := s.Scan(&c.ID, &c.CotizacionID, &c.Nombre, &c.Apellidos, &c.Edad, &c.Telefono,
		&c.Email, &c.Isapre, &c.ValorMensual, &c.Clinica, &c.Renta, &c.NumeroCargas,
		&c.EdadesCargas, &c.Mensaje, &c.Procedencia, &c.TipoIngreso, &c.Estado,
		&c.IDPropietario, &c.FechaEnvio)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// Create inserts a cotización stamped with its propietario and fills in the
// generated numeric id.
func (r *CotizacionRepo) Create(ctx context.Context, c *model.Cotizacion) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO cotizaciones (cotizacion_id, nombre, apellidos, edad, telefono, email,
			isapre, valor_mensual, clinica, renta, numero_cargas, edades_cargas, mensaje,
			procedencia, tipo_ingreso, estado, id_propietario)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.CotizacionID, c.Nombre, c.Apellidos, c.Edad, c.Telefono, c.Email,
		c.Isapre, c.ValorMensual, c.Clinica, c.Renta, c.NumeroCargas, c.EdadesCargas,
		c.Mensaje, c.Procedencia, c.TipoIngreso, model.EstadoPendiente, c.IDPropietario)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Estado = model.EstadoPendiente
	return nil
}

// GetByID fetches one cotización visible to the given propietario.
func (r *CotizacionRepo) GetByID(ctx context.Context, id, propietario uint64) (model.Cotizacion, error) {
	return scanCotizacion(r.DB.QueryRowContext(ctx,
		"SELECT "+cotizacionCols+" FROM cotizaciones WHERE id=? AND id_propietario=? LIMIT 1",
		id, propietario))
}

// GetByCode fetches a cotización by its public COT- code, scoped to the
// propietario.  Used for the anonymous status lookup.
func (r *CotizacionRepo) GetByCode(ctx context.Context, code string, propietario uint64) (model.Cotizacion, error) {
	return scanCotizacion(r.DB.QueryRowContext(ctx,
		"SELECT "+cotizacionCols+" FROM cotizaciones WHERE cotizacion_id=? AND id_propietario=? LIMIT 1",
		code, propietario))
}

// List returns a filtered page of cotizaciones plus the total match count.
func (r *CotizacionRepo) List(ctx context.Context, f CotizacionFilter, page, limit int) ([]model.Cotizacion, int, error) {
	where, args := f.build()

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cotizaciones "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+cotizacionCols+" FROM cotizaciones "+where+
			" ORDER BY fecha_envio DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Cotizacion
	for rows.Next() {
		c, err := scanCotizacion(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CotizacionUpdate lists the optional fields of an admin edit.  Nil fields
// are left untouched.
type CotizacionUpdate struct {
	Nombre       *string
	Apellidos    *string
	Edad         *int
	Telefono     *string
	Email        *string
	Isapre       *string
	ValorMensual *int
	Clinica      *string
	Renta        *int
	NumeroCargas *int
	EdadesCargas *string
	Mensaje      *string
	Procedencia  *string
	TipoIngreso  *string
	Estado       *string
}

// Update applies the non-nil fields of upd to a row owned by propietario.
func (r *CotizacionRepo) Update(ctx context.Context, id, propietario uint64, upd CotizacionUpdate) error {
	var u updates
	if upd.Nombre != nil {
		u.set("nombre", *upd.Nombre)
	}
	if upd.Apellidos != nil {
		u.set("apellidos", *upd.Apellidos)
	}
	if upd.Edad != nil {
		u.set("edad", *upd.Edad)
	}
	if upd.Telefono != nil {
		u.set("telefono", *upd.Telefono)
	}
	if upd.Email != nil {
		u.set("email", *upd.Email)
	}
	if upd.Isapre != nil {
		u.set("isapre", *upd.Isapre)
	}
	if upd.ValorMensual != nil {
		u.set("valor_mensual", *upd.ValorMensual)
	}
	if upd.Clinica != nil {
		u.set("clinica", *upd.Clinica)
	}
	if upd.Renta != nil {
		u.set("renta", *upd.Renta)
	}
	if upd.NumeroCargas != nil {
		u.set("numero_cargas", *upd.NumeroCargas)
	}
	if upd.EdadesCargas != nil {
		u.set("edades_cargas", *upd.EdadesCargas)
	}
	if upd.Mensaje != nil {
		u.set("mensaje", *upd.Mensaje)
	}
	if upd.Procedencia != nil {
		u.set("procedencia", *upd.Procedencia)
	}
	if upd.TipoIngreso != nil {
		u.set("tipo_ingreso", *upd.TipoIngreso)
	}
	if upd.Estado != nil {
		u.set("estado", *upd.Estado)
	}
	if u.empty() {
		return nil
	}
	args := append(u.args, id, propietario)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cotizaciones "+u.clause()+" WHERE id=? AND id_propietario=?", args...)
	if err != nil {
		return err
	}
	return notFoundOnZero(ctx, r.DB,
		"SELECT 1 FROM cotizaciones WHERE id=? AND id_propietario=? LIMIT 1", res, id, propietario)
}

// UpdateEstado moves a cotización to a new workflow state.
func (r *CotizacionRepo) UpdateEstado(ctx context.Context, id, propietario uint64, estado string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cotizaciones SET estado=? WHERE id=? AND id_propietario=?",
		estado, id, propietario)
	if err != nil {
		return err
	}
	return notFoundOnZero(ctx, r.DB,
		"SELECT 1 FROM cotizaciones WHERE id=? AND id_propietario=? LIMIT 1", res, id, propietario)
}

// Delete removes a cotización owned by propietario.
func (r *CotizacionRepo) Delete(ctx context.Context, id, propietario uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM cotizaciones WHERE id=? AND id_propietario=?", id, propietario)
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

// FilterOptions are the distinct values the admin list can filter by.
type FilterOptions struct {
	Estados      []string `json:"estados"`
	Isapres      []string `json:"isapres"`
	Clinicas     []string `json:"clinicas"`
	Procedencias []string `json:"procedencias"`
	TiposIngreso []string `json:"tipos_ingreso"`
}

// Options collects the distinct filter values present in the propietario's
// data.
func (r *CotizacionRepo) Options(ctx context.Context, propietario uint64) (FilterOptions, error) {
	opts := FilterOptions{Estados: model.Estados}
	for _, q := range []struct {
		col  string
		dest *[]string
	}{
		{"isapre", &opts.Isapres},
		{"clinica", &opts.Clinicas},
		{"procedencia", &opts.Procedencias},
		{"tipo_ingreso", &opts.TiposIngreso},
	} {
		rows, err := r.DB.QueryContext(ctx,
			"SELECT DISTINCT "+q.col+" FROM cotizaciones WHERE id_propietario=? AND "+q.col+" <> '' ORDER BY "+q.col,
			propietario)
		if err != nil {
			return opts, err
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return opts, err
			}
			*q.dest = append(*q.dest, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return opts, err
		}
		rows.Close()
	}
	return opts, nil
}

// Stats aggregates per-estado counts for the propietario's dashboard.
func (r *CotizacionRepo) Stats(ctx context.Context, propietario uint64) (model.CotizacionStats, error) {
	var s model.CotizacionStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COUNT(CASE WHEN estado='pendiente' THEN 1 END),
			COUNT(CASE WHEN estado='en_revision' THEN 1 END),
			COUNT(CASE WHEN estado='contactado' THEN 1 END),
			COUNT(CASE WHEN estado='cliente_ingresado' THEN 1 END),
			COUNT(CASE WHEN estado='nunca_respondio' THEN 1 END),
			COUNT(CASE WHEN estado='cotizado' THEN 1 END),
			COUNT(CASE WHEN estado='cerrado' THEN 1 END)
		 FROM cotizaciones WHERE id_propietario=?`, propietario).
		Scan(&s.Total, &s.Pendientes, &s.EnRevision, &s.Contactados,
			&s.ClienteIngresado, &s.NuncaRespondio, &s.Cotizados, &s.Cerrados)
	return s, err
}

// notFoundOnZero distinguishes a no-op update from a missing row after an
// UPDATE reports zero affected rows.
func notFoundOnZero(ctx context.Context, db *sql.DB, existsQ string, res sql.Result, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	if err := db.QueryRowContext(ctx, existsQ, args...).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

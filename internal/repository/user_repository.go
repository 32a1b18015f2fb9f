package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
)

// UserRepo persists users joined with their role and permission set.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserWithRole is a user row enriched with role name and permissions.
type UserWithRole struct {
	model.User
	RoleName    string
	Permissions []string
}

const userSelect = `SELECT u.id, u.rut, u.email, u.password_hash, u.first_name, u.last_name,
	u.phone, u.address, u.region, u.comuna, u.role_id, u.is_active, u.email_verified,
	u.email_verification_token, u.password_reset_token, u.password_reset_expires,
	u.last_login, u.created_at, u.updated_at,
	COALESCE(r.name, ''), COALESCE(r.permissions, '[]')
	FROM users u LEFT JOIN roles r ON u.role_id = r.id `

func scanUser(row *sql.Row) (UserWithRole, error) {
	var (
		u        UserWithRole
		permsRaw []byte
	)
	err := row.Scan(&u.ID, &u.Rut, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Address, &u.Region, &u.Comuna, &u.RoleID, &u.IsActive, &u.EmailVerified,
		&u.EmailVerificationToken, &u.PasswordResetToken, &u.PasswordResetExpires,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt, &u.RoleName, &permsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(permsRaw, &u.Permissions); err != nil {
		u.Permissions = nil
	}
	return u, nil
}

// CreateUserParams carries the fields for a user insert.  Active/Verified
// differ between self-registration (inactive verification pending) and
// admin creation (verified immediately).
type CreateUserParams struct {
	Rut               string
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	Phone             string
	Address           string
	Region            string
	Comuna            string
	RoleID            uint64
	VerificationToken string
	EmailVerified     bool
}

// Create inserts a user and returns its id.  Unique collisions on email or
// rut map to their sentinel errors.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams) (uint64, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (rut, email, password_hash, first_name, last_name, phone, address,
			region, comuna, role_id, email_verified, email_verification_token)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Rut, p.Email, p.PasswordHash, p.FirstName, p.LastName,
		nullStr(p.Phone), nullStr(p.Address), nullStr(p.Region), nullStr(p.Comuna),
		nullID(p.RoleID), p.EmailVerified, nullStr(p.VerificationToken))
	if err != nil {
		return 0, dupErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (UserWithRole, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx, userSelect+"WHERE u.email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (UserWithRole, error) {
	return scanUser(r.DB.QueryRowContext(ctx, userSelect+"WHERE u.id=? LIMIT 1", id))
}

// LoadIdentity resolves a verified access token's subject into the Identity
// attached to the request.  It enforces the credential state machine:
// missing rows, deactivated accounts and unverified emails each fail with
// their own sentinel so the gate can answer precisely.
func (r *UserRepo) LoadIdentity(ctx context.Context, id uint64) (model.Identity, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	if !u.IsActive {
		return model.Identity{}, ErrUserInactive
	}
	if !u.EmailVerified {
		return model.Identity{}, ErrEmailUnverified
	}
	return model.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Rut:         u.Rut,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.RoleName,
		Permissions: u.Permissions,
	}, nil
}

// VerifyEmailToken marks the account holding the token as verified and
// clears the token.  ErrNotFound when the token matches no user.
func (r *UserRepo) VerifyEmailToken(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email_verified=TRUE, email_verification_token=NULL
		 WHERE email_verification_token=?`, token)
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

// SetResetToken stores a password-reset token with its expiry.
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint64, token string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=?, password_reset_expires=? WHERE id=?",
		token, expires, userID)
	return err
}

// UserIDByResetToken returns the holder of a still-valid reset token.
func (r *UserRepo) UserIDByResetToken(ctx context.Context, token string) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT id FROM users WHERE password_reset_token=? AND password_reset_expires > UTC_TIMESTAMP() LIMIT 1`,
		token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// UpdatePassword replaces the hash and clears any pending reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, password_reset_token=NULL, password_reset_expires=NULL
		 WHERE id=?`, hash, id)
	return err
}

// TouchLastLogin stamps the login timestamp.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login=UTC_TIMESTAMP() WHERE id=?", id)
	return err
}

// List returns users (optionally matching a search term) with a total count
// for pagination.
func (r *UserRepo) List(ctx context.Context, search string, page, limit int) ([]UserWithRole, int, error) {
	var c conditions
	if search != "" {
		like := "%" + search + "%"
		c.add("(u.email LIKE ? OR u.rut LIKE ? OR u.first_name LIKE ? OR u.last_name LIKE ?)",
			like, like, like, like)
	}
	where := c.clause()

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users u "+where, c.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(c.args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		userSelect+where+" ORDER BY u.created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []UserWithRole
	for rows.Next() {
		var (
			u        UserWithRole
			permsRaw []byte
		)
		if err := rows.Scan(&u.ID, &u.Rut, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Phone, &u.Address, &u.Region, &u.Comuna, &u.RoleID, &u.IsActive, &u.EmailVerified,
			&u.EmailVerificationToken, &u.PasswordResetToken, &u.PasswordResetExpires,
			&u.LastLogin, &u.CreatedAt, &u.UpdatedAt, &u.RoleName, &permsRaw); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(permsRaw, &u.Permissions); err != nil {
			u.Permissions = nil
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UserUpdate lists the optional fields of an admin user update.  Nil fields
// are left untouched.
type UserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	Region    *string
	Comuna    *string
	RoleID    *uint64
	IsActive  *bool
}

// Update applies the non-nil fields of upd to a user row.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) error {
	var u updates
	if upd.Email != nil {
		u.set("email", strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.FirstName != nil {
		u.set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		u.set("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		u.set("phone", *upd.Phone)
	}
	if upd.Address != nil {
		u.set("address", *upd.Address)
	}
	if upd.Region != nil {
		u.set("region", *upd.Region)
	}
	if upd.Comuna != nil {
		u.set("comuna", *upd.Comuna)
	}
	if upd.RoleID != nil {
		u.set("role_id", *upd.RoleID)
	}
	if upd.IsActive != nil {
		u.set("is_active", *upd.IsActive)
	}
	if u.empty() {
		return nil
	}
	args := append(u.args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE users "+u.clause()+" WHERE id=?", args...)
	if err != nil {
		return dupErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish a no-op update from a missing row
		var exists int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a user.  The delete is refused with ErrHasDependents while
// cotizaciones (as propietario) or policies (as advisor) still reference
// the user.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	var dep int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM cotizaciones WHERE id_propietario=? LIMIT 1", id).Scan(&dep)
	if err == nil {
		return ErrHasDependents
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM policies WHERE advisor_id=? LIMIT 1", id).Scan(&dep)
	if err == nil {
		return ErrHasDependents
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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

// AdminEmails returns the addresses of active administrators, used for new
// quote notifications.
func (r *UserRepo) AdminEmails(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.email FROM users u JOIN roles r ON u.role_id = r.id
		 WHERE r.name='admin' AND u.is_active=TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// dupErr maps MySQL duplicate-key failures (error 1062) to the matching
// sentinel, inspecting the violated index name.
func dupErr(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "rut") {
		return ErrRutExists
	}
	return ErrEmailExists
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id uint64) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}

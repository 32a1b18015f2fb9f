package model

import (
	"database/sql"
	"time"
)

// User mirrors the 'users' table.
type User struct {
	ID                     uint64
	Rut                    string
	Email                  string
	PasswordHash           string
	FirstName              string
	LastName               string
	Phone                  sql.NullString
	Address                sql.NullString
	Region                 sql.NullString
	Comuna                 sql.NullString
	RoleID                 sql.NullInt64
	IsActive               bool
	EmailVerified          bool
	EmailVerificationToken sql.NullString
	PasswordResetToken     sql.NullString
	PasswordResetExpires   sql.NullTime
	LastLogin              sql.NullTime
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Role is static reference data: a named set of permission strings.
type Role struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Identity is the resolved user attached to an authenticated request:
// the token subject enriched with role and permissions.  It is what the
// authorization middleware stores in the request context.
type Identity struct {
	ID          uint64   `json:"id"`
	Email       string   `json:"email"`
	Rut         string   `json:"rut"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the identity carries the exact permission.
func (i Identity) HasPermission(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

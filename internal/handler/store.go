package handler

import (
	"context"
	"time"

	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
)

// UserStore is the slice of the user repository the auth and staff
// handlers depend on.  *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, p repository.CreateUserParams) (uint64, error)
	GetByEmail(ctx context.Context, email string) (repository.UserWithRole, error)
	GetByID(ctx context.Context, id uint64) (repository.UserWithRole, error)
	List(ctx context.Context, search string, page, limit int) ([]repository.UserWithRole, int, error)
	Update(ctx context.Context, id uint64, upd repository.UserUpdate) error
	Delete(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	VerifyEmailToken(ctx context.Context, token string) error
	SetResetToken(ctx context.Context, userID uint64, token string, expires time.Time) error
	UserIDByResetToken(ctx context.Context, token string) (uint64, error)
	TouchLastLogin(ctx context.Context, id uint64) error
}

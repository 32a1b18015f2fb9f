package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/mailer"
	"github.com/asesoriasalud/cotizaciones-api/internal/model"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/service"
	"github.com/asesoriasalud/cotizaciones-api/internal/utils"
)

// fakeUserStore hands back canned rows and errors; only the calls the
// tests exercise carry behavior.
type fakeUserStore struct {
	user      repository.UserWithRole
	emailErr  error
	deleteErr error
}

func (f *fakeUserStore) Create(context.Context, repository.CreateUserParams) (uint64, error) {
	return 0, nil
}

func (f *fakeUserStore) GetByEmail(context.Context, string) (repository.UserWithRole, error) {
	return f.user, f.emailErr
}

func (f *fakeUserStore) GetByID(context.Context, uint64) (repository.UserWithRole, error) {
	return f.user, nil
}

func (f *fakeUserStore) List(context.Context, string, int, int) ([]repository.UserWithRole, int, error) {
	return nil, 0, nil
}

func (f *fakeUserStore) Update(context.Context, uint64, repository.UserUpdate) error { return nil }

func (f *fakeUserStore) Delete(context.Context, uint64) error { return f.deleteErr }

func (f *fakeUserStore) UpdatePassword(context.Context, uint64, string) error { return nil }

func (f *fakeUserStore) VerifyEmailToken(context.Context, string) error { return nil }

func (f *fakeUserStore) SetResetToken(context.Context, uint64, string, time.Time) error { return nil }

func (f *fakeUserStore) UserIDByResetToken(context.Context, string) (uint64, error) { return 0, nil }

func (f *fakeUserStore) TouchLastLogin(context.Context, uint64) error { return nil }

// fakeTokens satisfies service.TokenStore for handlers whose test paths
// never reach the session ledger.
type fakeTokens struct{}

func (fakeTokens) Store(context.Context, uint64, string, time.Time) error { return nil }

func (fakeTokens) Redeem(context.Context, string) (uint64, error) {
	return 0, repository.ErrTokenNotFound
}

func (fakeTokens) DeleteAllForUser(context.Context, uint64) error { return nil }

func (fakeTokens) DeleteExpired(context.Context) (int64, error) { return 0, nil }

func newTestAuthHandler(t *testing.T, users UserStore) *AuthHandler {
	t.Helper()
	sessions := service.NewSessionManager(fakeTokens{}, "test-secret", 15, 7)
	return NewAuthHandler(config.Config{BcryptCost: 4}, users, sessions, mailer.New(config.SMTPConfig{}, ""))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, string) {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Success, body.Message
}

func postLogin(t *testing.T, h *AuthHandler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	return rec
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	t.Parallel()

	hash, err := utils.HashPassword("Secreta123", 4)
	require.NoError(t, err)

	h := newTestAuthHandler(t, &fakeUserStore{user: repository.UserWithRole{
		User: model.User{ID: 7, Email: "ana@example.com", PasswordHash: hash, IsActive: false, EmailVerified: true},
	}})

	rec := postLogin(t, h, `{"email":"ana@example.com","password":"Secreta123"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	success, message := decodeEnvelope(t, rec)
	assert.False(t, success)
	assert.Equal(t, "Cuenta inactiva", message)
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	t.Parallel()

	hash, err := utils.HashPassword("Secreta123", 4)
	require.NoError(t, err)

	h := newTestAuthHandler(t, &fakeUserStore{user: repository.UserWithRole{
		User: model.User{ID: 7, Email: "ana@example.com", PasswordHash: hash, IsActive: true, EmailVerified: false},
	}})

	rec := postLogin(t, h, `{"email":"ana@example.com","password":"Secreta123"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	success, message := decodeEnvelope(t, rec)
	assert.False(t, success)
	assert.Equal(t, "Por favor verifica tu email antes de iniciar sesión", message)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	t.Parallel()

	h := newTestAuthHandler(t, &fakeUserStore{emailErr: repository.ErrNotFound})

	rec := postLogin(t, h, `{"email":"nadie@example.com","password":"Secreta123"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, message := decodeEnvelope(t, rec)
	assert.Equal(t, "Credenciales inválidas", message)
}

// Package handler holds the HTTP endpoints.  Every handler binds its
// request, validates it, runs the repositories under a short timeout and
// answers with the JSON envelope; nothing below this layer knows about HTTP.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/mailer"
	"github.com/asesoriasalud/cotizaciones-api/internal/middleware"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/service"
	"github.com/asesoriasalud/cotizaciones-api/internal/utils"
)

const dbTimeout = 5 * time.Second

// mailTimeout bounds each background email dispatch; a hung relay must
// never pile up goroutines.
const mailTimeout = 15 * time.Second

var (
	rutRe   = regexp.MustCompile(`^[0-9]{1,2}\.[0-9]{3}\.[0-9]{3}-[0-9kK]$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions *service.SessionManager
	Mail     *mailer.Mailer
}

func NewAuthHandler(cfg config.Config, u UserStore, s *service.SessionManager, m *mailer.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Mail: m}
}

// ----- DTOs -----

type registerReq struct {
	Rut       string `json:"rut"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Region    string `json:"region"`
	Comuna    string `json:"comuna"`
	RoleID    uint64 `json:"roleId"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Rut       string `json:"rut"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// validatePassword applies the registration password policy: at least 8
// characters with an upper-case letter, a lower-case letter and a digit.
func validatePassword(pw string) string {
	if len(pw) < 8 {
		return "La contraseña debe tener al menos 8 caracteres"
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "La contraseña debe contener al menos una mayúscula, una minúscula y un número"
	}
	return ""
}

func (r registerReq) validate() map[string]string {
	errs := map[string]string{}
	if !rutRe.MatchString(strings.TrimSpace(r.Rut)) {
		errs["rut"] = "Formato de RUT inválido (ej: 12.345.678-9)"
	}
	if !emailRe.MatchString(strings.TrimSpace(r.Email)) {
		errs["email"] = "Email inválido"
	}
	if msg := validatePassword(r.Password); msg != "" {
		errs["password"] = msg
	}
	if n := len(strings.TrimSpace(r.FirstName)); n < 2 || n > 50 {
		errs["firstName"] = "El nombre debe tener entre 2 y 50 caracteres"
	}
	if n := len(strings.TrimSpace(r.LastName)); n < 2 || n > 50 {
		errs["lastName"] = "El apellido debe tener entre 2 y 50 caracteres"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Register creates an unverified account and mails the verification link.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if errs := req.validate(); errs != nil {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", errs)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	verifyToken, err := utils.RandomHex(32)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.CreateUserParams{
		Rut:               strings.TrimSpace(req.Rut),
		Email:             req.Email,
		PasswordHash:      hash,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Phone:             strings.TrimSpace(req.Phone),
		Address:           strings.TrimSpace(req.Address),
		Region:            strings.TrimSpace(req.Region),
		Comuna:            strings.TrimSpace(req.Comuna),
		RoleID:            req.RoleID,
		VerificationToken: verifyToken,
	})
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusBadRequest, "El email ya está registrado")
	case errors.Is(err, repository.ErrRutExists):
		return fail(c, http.StatusBadRequest, "El RUT ya está registrado")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	h.sendAsync(func(ctx context.Context) error {
		return h.Mail.SendVerification(ctx, strings.ToLower(strings.TrimSpace(req.Email)), verifyToken, strings.TrimSpace(req.FirstName))
	}, "verification email")

	return ok(c, http.StatusCreated, "Usuario registrado exitosamente. Por favor verifica tu email.", echo.Map{
		"id":    uid,
		"email": strings.ToLower(strings.TrimSpace(req.Email)),
	})
}

// Login verifies credentials and issues a session.  Inactive and unverified
// accounts are refused even with a correct password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(req.Email) || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "Credenciales inválidas")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	if !u.IsActive {
		return fail(c, http.StatusUnauthorized, "Cuenta inactiva")
	}
	if !u.EmailVerified {
		return fail(c, http.StatusUnauthorized, "Por favor verifica tu email antes de iniciar sesión")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Credenciales inválidas")
	}

	sess, err := h.Sessions.Issue(ctx, u.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		log.Printf("auth: last_login update failed for user %d: %v", u.ID, err)
	}

	return ok(c, http.StatusOK, "Inicio de sesión exitoso", echo.Map{
		"user": userPart{
			ID:        u.ID,
			Rut:       u.Rut,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.RoleName,
		},
		"tokens": sess,
	})
}

// Refresh rotates a refresh token: the presented token is redeemed (single
// use) and a fresh pair comes back.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fail(c, http.StatusBadRequest, "Refresh token requerido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, _, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if errors.Is(err, service.ErrInvalidRefresh) {
		return fail(c, http.StatusUnauthorized, "Refresh token inválido o expirado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Tokens refrescados exitosamente", echo.Map{"tokens": sess})
}

// Logout revokes every session of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	ident, okID := middleware.GetIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "Token inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Sessions.RevokeAll(ctx, ident.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Sesión cerrada exitosamente", nil)
}

// Profile returns the authenticated identity.
func (h *AuthHandler) Profile(c echo.Context) error {
	ident, okID := middleware.GetIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "Token inválido")
	}
	return ok(c, http.StatusOK, "Perfil obtenido exitosamente", ident)
}

// VerifyEmail confirms an account from the emailed link.  The token arrives
// either as a path param or a query param depending on which link form the
// frontend built.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		return fail(c, http.StatusBadRequest, "Token de verificación requerido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err := h.Users.VerifyEmailToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusBadRequest, "Token de verificación inválido o expirado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Email verificado exitosamente. Ya puedes iniciar sesión.", nil)
}

// ForgotPassword stores a reset token and mails the link.  The response is
// identical whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Email inválido")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(req.Email) {
		return fail(c, http.StatusBadRequest, "Email inválido")
	}

	const neutral = "Si el email existe, recibirás un enlace para restablecer tu contraseña"

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return ok(c, http.StatusOK, neutral, nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	resetToken, err := utils.RandomHex(32)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	expires := time.Now().UTC().Add(1 * time.Hour)
	if err := h.Users.SetResetToken(ctx, u.ID, resetToken, expires); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	h.sendAsync(func(ctx context.Context) error {
		return h.Mail.SendPasswordReset(ctx, u.Email, resetToken, u.FirstName)
	}, "password reset email")

	return ok(c, http.StatusOK, neutral, nil)
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every live session of the account.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if msg := validatePassword(req.Password); msg != "" {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", map[string]string{"password": msg})
	}
	if req.ConfirmPassword != req.Password {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos", map[string]string{"confirmPassword": "Las contraseñas no coinciden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.UserIDByResetToken(ctx, req.Token)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusBadRequest, "Token inválido o expirado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	// no other session survives a password reset
	if err := h.Sessions.RevokeAll(ctx, uid); err != nil {
		log.Printf("auth: revoke-all after reset failed for user %d: %v", uid, err)
	}

	return ok(c, http.StatusOK, "Contraseña restablecida exitosamente", nil)
}

// sendAsync runs one mail dispatch in the background with its own timeout.
// Mail must never delay or fail the HTTP response.
func (h *AuthHandler) sendAsync(send func(context.Context) error, what string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Printf("mailer: %s failed: %v", what, err)
		}
	}()
}

package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/service"
	"github.com/asesoriasalud/cotizaciones-api/internal/utils"
)

// UserHandler bundles dependencies for the staff-administration endpoints.
type UserHandler struct {
	Cfg      config.Config
	Users    UserStore
	Roles    *repository.RoleRepo
	Sessions *service.SessionManager
}

func NewUserHandler(cfg config.Config, u UserStore, r *repository.RoleRepo, s *service.SessionManager) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Roles: r, Sessions: s}
}

// userView is the user shape returned to the panel; secrets never leave.
type userView struct {
	ID            uint64   `json:"id"`
	Rut           string   `json:"rut"`
	Email         string   `json:"email"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	Region        string   `json:"region"`
	Comuna        string   `json:"comuna"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
	IsActive      bool     `json:"is_active"`
	EmailVerified bool     `json:"email_verified"`
	LastLogin     *string  `json:"last_login"`
	CreatedAt     string   `json:"created_at"`
}

func toUserView(u repository.UserWithRole) userView {
	v := userView{
		ID:            u.ID,
		Rut:           u.Rut,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone.String,
		Address:       u.Address.String,
		Region:        u.Region.String,
		Comuna:        u.Comuna.String,
		Role:          u.RoleName,
		Permissions:   u.Permissions,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if u.LastLogin.Valid {
		s := u.LastLogin.Time.Format("2006-01-02 15:04:05")
		v.LastLogin = &s
	}
	return v
}

// List returns a page of staff accounts, optionally filtered by a search
// term over email, rut or name.
func (h *UserHandler) List(c echo.Context) error {
	page, limit := pagination(c, 10)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, total, err := h.Users.List(ctx, c.QueryParam("search"), page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	return ok(c, http.StatusOK, "Usuarios obtenidos exitosamente", echo.Map{
		"users":      views,
		"pagination": pageMeta(page, limit, total),
	})
}

// Get returns one staff account.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Usuario no encontrado")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Usuario obtenido exitosamente", toUserView(u))
}

// ListRoles returns the role reference data.
func (h *UserHandler) ListRoles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Roles obtenidos exitosamente", roles)
}

// Create inserts a staff account from the panel.  Admin-created accounts
// skip the verification email and are usable immediately.
func (h *UserHandler) Create(c echo.Context) error {
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.CreateUserParams{
		Rut:           strings.TrimSpace(req.Rut),
		Email:         req.Email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		Region:        strings.TrimSpace(req.Region),
		Comuna:        strings.TrimSpace(req.Comuna),
		RoleID:        req.RoleID,
		EmailVerified: true,
	})
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusBadRequest, "El email ya está registrado")
	case errors.Is(err, repository.ErrRutExists):
		return fail(c, http.StatusBadRequest, "El RUT ya está registrado")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusCreated, "Usuario creado exitosamente", toUserView(u))
}

type userUpdateReq struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Region    *string `json:"region"`
	Comuna    *string `json:"comuna"`
	RoleID    *uint64 `json:"roleId"`
	IsActive  *bool   `json:"isActive"`
}

// Update applies a partial edit to a staff account.  A password change
// revokes every live session of the account.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Datos de entrada inválidos")
	}
	if req.Email != nil && !emailRe.MatchString(strings.TrimSpace(*req.Email)) {
		return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos",
			map[string]string{"email": "Email inválido"})
	}
	if req.Password != nil {
		if msg := validatePassword(*req.Password); msg != "" {
			return failFields(c, http.StatusBadRequest, "Datos de entrada inválidos",
				map[string]string{"password": msg})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Users.Update(ctx, id, repository.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		Region:    req.Region,
		Comuna:    req.Comuna,
		RoleID:    req.RoleID,
		IsActive:  req.IsActive,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Usuario no encontrado")
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusBadRequest, "El email ya está registrado")
	case errors.Is(err, repository.ErrRutExists):
		return fail(c, http.StatusBadRequest, "El RUT ya está registrado")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "Error interno del servidor")
		}
		if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
			return fail(c, http.StatusInternalServerError, "Error interno del servidor")
		}
		if err := h.Sessions.RevokeAll(ctx, id); err != nil {
			log.Printf("users: revoke-all after password change failed for user %d: %v", id, err)
		}
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}
	return ok(c, http.StatusOK, "Usuario actualizado exitosamente", toUserView(u))
}

// Delete removes a staff account.  Refused while quotes or policies still
// reference the user.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Users.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Usuario no encontrado")
	case errors.Is(err, repository.ErrHasDependents):
		return fail(c, http.StatusConflict, "No se puede eliminar el usuario porque tiene cotizaciones o pólizas asociadas")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Error interno del servidor")
	}

	if err := h.Sessions.RevokeAll(ctx, id); err != nil {
		log.Printf("users: revoke-all after delete failed for user %d: %v", id, err)
	}
	return ok(c, http.StatusOK, "Usuario eliminado exitosamente", nil)
}

// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/handler"
	"github.com/asesoriasalud/cotizaciones-api/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg      config.Config
	RateCfg  config.RateLimitConfig
	Redis    *redis.Client
	Users    middleware.IdentityLoader
	Auth     *handler.AuthHandler
	UsersH   *handler.UserHandler
	CotizaH  *handler.CotizacionHandler
	ComentaH *handler.ComentarioHandler
}

// Register mounts the whole HTTP surface: the bare health endpoints, the
// email-verification links the frontend builds, and the /api tree with the
// rate limiter applied.
func Register(e *echo.Echo, d Deps) {
	health := handler.Health(d.Cfg.Env)
	e.GET("/health", health)

	// verification links arrive outside /api in both forms the frontend uses
	e.GET("/verify-email", d.Auth.VerifyEmail)
	e.GET("/verify-email/:token", d.Auth.VerifyEmail)

	api := e.Group("/api", middleware.NewRateLimiter(d.RateCfg, d.Redis))
	api.GET("/health", health)

	registerAuth(api, d)
	registerUsers(api, d)
	registerCotizaciones(api, d)
	registerComentarios(api, d)
}

func registerAuth(api *echo.Group, d Deps) {
	g := api.Group("/auth")
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh-token", d.Auth.Refresh)
	g.POST("/forgot-password", d.Auth.ForgotPassword)
	g.POST("/reset-password", d.Auth.ResetPassword)
	g.GET("/verify-email", d.Auth.VerifyEmail)
	g.GET("/verify-email/:token", d.Auth.VerifyEmail)

	auth := api.Group("/auth", middleware.JWTAuth(d.Cfg.JWTSecret, d.Users))
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/profile", d.Auth.Profile)
}

func registerUsers(api *echo.Group, d Deps) {
	g := api.Group("/users", middleware.JWTAuth(d.Cfg.JWTSecret, d.Users))
	g.GET("", d.UsersH.List, middleware.RequireAnyRole("admin", "supervisor"))
	g.GET("/roles", d.UsersH.ListRoles, middleware.RequireAnyRole("admin", "supervisor"))
	g.GET("/:id", d.UsersH.Get, middleware.RequireAnyRole("admin", "supervisor"))
	g.POST("", d.UsersH.Create, middleware.RequirePermission("users:write"))
	g.PUT("/:id", d.UsersH.Update, middleware.RequirePermission("users:write"))
	g.DELETE("/:id", d.UsersH.Delete, middleware.RequirePermission("users:delete"))
}

func registerCotizaciones(api *echo.Group, d Deps) {
	// public: tenant resolved, no auth, no ownership check
	pub := api.Group("/cotizaciones", middleware.ExtractPropietario)
	pub.POST("", d.CotizaH.Create)
	pub.GET("/estado/:cotizacion_id", d.CotizaH.Estado)

	// admin: tenant resolved, then identity must own the tenant
	adm := api.Group("/cotizaciones",
		middleware.ExtractPropietario,
		middleware.JWTAuth(d.Cfg.JWTSecret, d.Users),
		middleware.RequireRole("admin"),
		middleware.ValidatePropietario,
	)
	adm.GET("/estadisticas", d.CotizaH.Stats)
	adm.GET("/filtros", d.CotizaH.Options)
	adm.GET("", d.CotizaH.List)
	adm.GET("/:id", d.CotizaH.Get)
	adm.POST("/admin", d.CotizaH.CreateAdmin)
	adm.PUT("/:id/estado", d.CotizaH.UpdateEstado)
	adm.PUT("/:id", d.CotizaH.Update)
	adm.DELETE("/:id", d.CotizaH.Delete)
}

func registerComentarios(api *echo.Group, d Deps) {
	pub := api.Group("/comentarios", middleware.ExtractPropietario)
	pub.POST("", d.ComentaH.Create)
	pub.GET("/publicos", d.ComentaH.ListPublic)

	adm := api.Group("/comentarios",
		middleware.ExtractPropietario,
		middleware.JWTAuth(d.Cfg.JWTSecret, d.Users),
		middleware.RequireRole("admin"),
		middleware.ValidatePropietario,
	)
	adm.GET("/estadisticas", d.ComentaH.Stats)
	adm.GET("", d.ComentaH.List)
	adm.GET("/:id", d.ComentaH.Get)
	adm.POST("/admin", d.ComentaH.CreateAdmin)
	adm.PUT("/:id", d.ComentaH.Update)
	adm.DELETE("/:id", d.ComentaH.Delete)
	adm.PATCH("/:id/visibilidad", d.ComentaH.ToggleVisibility)
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/database"
	"github.com/asesoriasalud/cotizaciones-api/internal/handler"
	"github.com/asesoriasalud/cotizaciones-api/internal/mailer"
	"github.com/asesoriasalud/cotizaciones-api/internal/queue"
	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/router"
	"github.com/asesoriasalud/cotizaciones-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the variables directly
	_ = godotenv.Load()
	cfg := config.Load()
	rateCfg := config.LoadRateLimitConfig()

	db, err := database.Open(database.Options{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: time.Duration(cfg.DBConnLifeMin) * time.Minute,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db)
	cotizaciones := repository.NewCotizacionRepo(db)
	comentarios := repository.NewComentarioRepo(db)

	sessions := service.NewSessionManager(tokens, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	sessions.StartSweeper(ctx, time.Hour)

	mail := mailer.New(cfg.SMTP, cfg.FrontendURL)
	if !mail.Enabled() {
		log.Println("mailer: no SMTP host configured, outbound mail disabled")
	}
	go queue.StartCotizacionConsumer(ctx, mail)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Propietario-ID"},
	}))

	auth := handler.NewAuthHandler(cfg, users, sessions, mail)
	router.Register(e, router.Deps{
		Cfg:      cfg,
		RateCfg:  rateCfg,
		Redis:    rdb,
		Users:    users,
		Auth:     auth,
		UsersH:   handler.NewUserHandler(cfg, users, roles, sessions),
		CotizaH:  handler.NewCotizacionHandler(cotizaciones, users),
		ComentaH: handler.NewComentarioHandler(comentarios),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

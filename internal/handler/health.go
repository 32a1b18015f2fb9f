package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports service liveness for load balancers and monitoring.
func Health(env string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ok(c, http.StatusOK, "Servidor funcionando correctamente", echo.Map{
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": env,
		})
	}
}

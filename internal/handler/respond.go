package handler

import "github.com/labstack/echo/v4"

// envelope is the response shape every endpoint returns: success tells
// apart happy and error paths, message is always human readable (Spanish,
// same as the frontend shows), data carries the payload and errors the
// per-field validation detail.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func ok(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

func failFields(c echo.Context, status int, message string, fields map[string]string) error {
	return c.JSON(status, envelope{Success: false, Message: message, Errors: fields})
}

package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/jingally/booking-system/internal/core/domain"
)

// envelope is the success body of every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, envelope{Success: true, Message: message, Data: data})
}

// errorResponse documents the body rendered by the API error handler.
type errorResponse struct {
	Success bool                `json:"success" example:"false"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

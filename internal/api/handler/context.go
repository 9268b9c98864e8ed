package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jingally/booking-system/internal/api/middleware"
	"github.com/jingally/booking-system/internal/core/ports"
)

// callerFrom extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both the user id and
// the role must be present, otherwise the token is structurally valid but
// operationally unusable.
func callerFrom(c echo.Context) (ports.Caller, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	if userID == "" || role == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Caller{UserID: userID, Role: role}, nil
}

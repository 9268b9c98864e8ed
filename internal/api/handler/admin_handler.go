package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

// AdminHandler serves the admin-only shipment operations. Routes that only
// differ from the customer ones by scope reuse ShipmentHandler.
type AdminHandler struct {
	shipments *ShipmentHandler
	service   ports.ShipmentService
}

func NewAdminHandler(service ports.ShipmentService) *AdminHandler {
	return &AdminHandler{shipments: NewShipmentHandler(service), service: service}
}

// CreateShipment handles POST /admin/shipments.
//
// @Summary      Book a shipment on behalf of a customer
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      adminCreateShipmentRequest  true  "Shipment details plus userId"
// @Success      201   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/shipments [post]
func (h *AdminHandler) CreateShipment(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req adminCreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.UserID == "" {
		return domain.NewValidationError("userId", "is required")
	}
	if err := c.Validate(&req.createShipmentRequest); err != nil {
		return err
	}

	in := toCreateInput(req.createShipmentRequest, req.UserID, c.Request().Header.Get(idempotencyHdr))
	return h.shipments.create(c, caller, in)
}

// AssignDriver handles POST /shipments/assign-driver.
//
// @Summary      Assign a driver to a shipment
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignDriverRequest  true  "Shipment and driver"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/assign-driver [post]
func (h *AdminHandler) AssignDriver(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req assignDriverRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.service.AssignDriver(c.Request().Context(), caller, req.ShipmentID, req.DriverID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Driver assigned successfully", toShipmentResponse(s))
}

// AssignContainer handles POST /shipments/assign-container.
//
// @Summary      Assign a container to a shipment
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignContainerRequest  true  "Shipment and container"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/assign-container [post]
func (h *AdminHandler) AssignContainer(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req assignContainerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.service.AssignContainer(c.Request().Context(), caller, req.ShipmentID, req.ContainerID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Container assigned successfully", toShipmentResponse(s))
}

// DashboardStats handles GET /admin/dashboard/stats.
//
// @Summary      Shipment counters and paid revenue
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=dashboardStatsResponse}
// @Failure      403  {object}  errorResponse
// @Router       /admin/dashboard/stats [get]
func (h *AdminHandler) DashboardStats(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.service.DashboardStats(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", toStatsResponse(stats))
}

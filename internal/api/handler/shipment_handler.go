package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

const (
	photoField      = "images"
	maxPhotoBytes   = 10 << 20
	maxPhotos       = 10
	idempotencyHdr  = "Idempotency-Key"
	msgShipmentDone = "Shipment created successfully"
)

// PhotoBodyLimit caps the whole photo upload request: maxPhotos files of
// maxPhotoBytes each plus room for multipart framing.
const PhotoBodyLimit = "101M"

// ShipmentHandler handles HTTP requests for shipment operations.
type ShipmentHandler struct {
	service ports.ShipmentService
}

func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// bindValid binds the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// Create handles POST /shipments.
//
// @Summary      Create a new shipment
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createShipmentRequest  true   "Shipment details"
// @Success      201              {object}  envelope{data=shipmentResponse}
// @Success      200              {object}  envelope{data=shipmentResponse}  "replayed idempotent request"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req createShipmentRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	in := toCreateInput(req, "", c.Request().Header.Get(idempotencyHdr))
	return h.create(c, caller, in)
}

func (h *ShipmentHandler) create(c echo.Context, caller ports.Caller, in ports.CreateShipmentInput) error {
	result, err := h.service.CreateShipment(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	code := http.StatusCreated
	if result.AlreadyExisted {
		code = http.StatusOK
	}
	return respond(c, code, msgShipmentDone, toShipmentResponse(result.Shipment))
}

// List handles GET /shipments and GET /admin/shipments.
//
// @Summary      List shipments visible to the caller, newest first
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  envelope{data=listShipmentsResponse}
// @Failure      400     {object}  errorResponse
// @Router       /shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var q listShipmentsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.ListShipments(c.Request().Context(), caller, ports.ListShipmentsInput{
		Status: q.Status,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", toListResponse(result))
}

// Get handles GET /shipments/:id.
//
// @Summary      Get a shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  envelope{data=shipmentResponse}
// @Failure      404  {object}  errorResponse
// @Router       /shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	s, err := h.service.GetShipment(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", toShipmentResponse(s))
}

// Track handles GET /shipments/track/:trackingNumber. No authentication.
//
// @Summary      Track a shipment by tracking number
// @Tags         shipments
// @Produce      json
// @Param        trackingNumber  path      string  true  "Tracking number"
// @Success      200             {object}  envelope{data=trackingResponse}
// @Failure      404             {object}  errorResponse
// @Router       /shipments/track/{trackingNumber} [get]
func (h *ShipmentHandler) Track(c echo.Context) error {
	view, err := h.service.TrackShipment(c.Request().Context(), c.Param("trackingNumber"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", toTrackingResponse(view))
}

// UpdateStatus handles PATCH /shipments/:id/status.
//
// @Summary      Update shipment status
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Shipment id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/{id}/status [patch]
func (h *ShipmentHandler) UpdateStatus(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.service.UpdateStatus(c.Request().Context(), caller, ports.UpdateStatusInput{
		ShipmentID:      c.Param("id"),
		Status:          req.Status,
		CurrentLocation: toCoordinates(req.CurrentLocation),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Shipment status updated successfully", toShipmentResponse(s))
}

// UpdatePayment handles PATCH /shipments/:id/payment-status.
//
// @Summary      Record a payment outcome
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Shipment id"
// @Param        body  body      updatePaymentRequest  true  "Payment"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/{id}/payment-status [patch]
func (h *ShipmentHandler) UpdatePayment(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req updatePaymentRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.service.UpdatePayment(c.Request().Context(), caller, ports.UpdatePaymentInput{
		ShipmentID:    c.Param("id"),
		PaymentStatus: req.PaymentStatus,
		Amount:        req.Amount,
		Method:        req.Method,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Payment status updated successfully", toShipmentResponse(s))
}

// UpdateDimensions handles PATCH /shipments/:id/package-dimensions.
//
// @Summary      Update package measurements or attach a price guide
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Shipment id"
// @Param        body  body      updateDimensionsRequest  true  "Measurements or price guide"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/{id}/package-dimensions [patch]
func (h *ShipmentHandler) UpdateDimensions(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req updateDimensionsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	update, err := toDimensionUpdate(req)
	if err != nil {
		return err
	}

	s, err := h.service.UpdateDimensions(c.Request().Context(), caller, c.Param("id"), update)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Package dimensions updated successfully", toShipmentResponse(s))
}

// UpdateAddress handles PATCH /shipments/:id/delivery-address.
//
// @Summary      Update addresses and receiver contact
// @Description  Omitted fields are unchanged; null clears a field.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Shipment id"
// @Param        body  body      updateAddressRequest  true  "Partial address update"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/{id}/delivery-address [patch]
func (h *ShipmentHandler) UpdateAddress(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req updateAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	update, err := toAddressUpdate(req, c.Validate, isEmail)
	if err != nil {
		return err
	}

	s, err := h.service.UpdateAddress(c.Request().Context(), caller, c.Param("id"), update)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Delivery address updated successfully", toShipmentResponse(s))
}

// SchedulePickup handles PATCH /shipments/:id/pickup-date-time.
//
// @Summary      Schedule the pickup
// @Description  The estimated delivery is set to pickup + 3 days.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Shipment id"
// @Param        body  body      schedulePickupRequest  true  "RFC 3339 pickup time"
// @Success      200   {object}  envelope{data=shipmentResponse}
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /shipments/{id}/pickup-date-time [patch]
func (h *ShipmentHandler) SchedulePickup(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req schedulePickupRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.service.SchedulePickup(c.Request().Context(), caller, c.Param("id"), *req.ScheduledPickupTime)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Pickup date and time updated successfully", toShipmentResponse(s))
}

// UploadPhotos handles PATCH /shipments/:id/photos.
//
// @Summary      Upload package photos
// @Description  Up to 10 files of at most 10 MiB each. Nothing is stored unless every upload succeeds.
// @Tags         shipments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Shipment id"
// @Param        images  formData  file    true  "Photos"
// @Success      200     {object}  envelope{data=shipmentResponse}
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /shipments/{id}/photos [patch]
func (h *ShipmentHandler) UploadPhotos(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	files, err := readPhotos(c)
	if err != nil {
		return err
	}

	s, err := h.service.AddPhotos(c.Request().Context(), caller, c.Param("id"), files)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Photos uploaded successfully", toShipmentResponse(s))
}

func readPhotos(c echo.Context) ([]ports.FileUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.NewValidationError(photoField, "multipart form with at least one file is required")
	}
	headers := form.File[photoField]
	if len(headers) == 0 {
		return nil, domain.NewValidationError(photoField, "at least one file is required")
	}
	if len(headers) > maxPhotos {
		return nil, domain.NewValidationError(photoField, fmt.Sprintf("at most %d files per upload", maxPhotos))
	}

	files := make([]ports.FileUpload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxPhotoBytes {
			return nil, domain.NewValidationError(photoField, fmt.Sprintf("%s exceeds %d bytes", fh.Filename, maxPhotoBytes))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, ports.FileUpload{Filename: fh.Filename, Data: data})
	}
	return files, nil
}

// Cancel handles POST|PUT /shipments/:id/cancel.
//
// @Summary      Cancel a shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  envelope{data=shipmentResponse}
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /shipments/{id}/cancel [post]
// @Router       /shipments/{id}/cancel [put]
func (h *ShipmentHandler) Cancel(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	s, err := h.service.Cancel(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Shipment cancelled successfully", toShipmentResponse(s))
}

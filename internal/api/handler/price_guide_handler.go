package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

type PriceGuideHandler struct {
	service ports.PriceGuideService
}

func NewPriceGuideHandler(service ports.PriceGuideService) *PriceGuideHandler {
	return &PriceGuideHandler{service: service}
}

type createPriceGuideRequest struct {
	GuideName string          `json:"guideName" validate:"required"`
	Price     decimal.Decimal `json:"price"`
}

type priceGuideResponse struct {
	ID          string `json:"id"`
	GuideNumber string `json:"guideNumber"`
	GuideName   string `json:"guideName"`
	Price       string `json:"price"`
}

func toPriceGuideResponse(g *domain.PriceGuide) priceGuideResponse {
	return priceGuideResponse{
		ID:          g.ID,
		GuideNumber: g.GuideNumber,
		GuideName:   g.GuideName,
		Price:       g.Price.StringFixed(2),
	}
}

// List handles GET /price-guides.
//
// @Summary      List price guides, cheapest first
// @Tags         price-guides
// @Produce      json
// @Success      200  {object}  envelope{data=[]priceGuideResponse}
// @Router       /price-guides [get]
func (h *PriceGuideHandler) List(c echo.Context) error {
	guides, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]priceGuideResponse, 0, len(guides))
	for _, g := range guides {
		out = append(out, toPriceGuideResponse(g))
	}
	return respond(c, http.StatusOK, "", out)
}

// Create handles POST /admin/price-guides.
//
// @Summary      Create a price guide
// @Tags         price-guides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPriceGuideRequest  true  "Guide"
// @Success      201   {object}  envelope{data=priceGuideResponse}
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /admin/price-guides [post]
func (h *PriceGuideHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req createPriceGuideRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	g, err := h.service.Create(c.Request().Context(), caller, req.GuideName, req.Price)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Price guide created successfully", toPriceGuideResponse(g))
}

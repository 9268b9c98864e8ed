package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jingally/booking-system/internal/core/ports"
)

type MediaHandler struct {
	media ports.MediaReader
}

func NewMediaHandler(media ports.MediaReader) *MediaHandler {
	return &MediaHandler{media: media}
}

// Get handles GET /media/:id and streams the stored object.
//
// @Summary      Download an uploaded photo
// @Tags         media
// @Produce      octet-stream
// @Param        id   path  string  true  "Object id"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /media/{id} [get]
func (h *MediaHandler) Get(c echo.Context) error {
	obj, err := h.media.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer obj.Close()

	hdr := c.Response().Header()
	hdr.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	hdr.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Stream(http.StatusOK, obj.ContentType, obj)
}

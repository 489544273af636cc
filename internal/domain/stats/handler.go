package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/stats", h.GetStats)
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.agg.Compute(c.Request().Context()))
}

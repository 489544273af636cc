package record

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records", h.ListRecords)
	api.GET("/patients/:id/records", h.ListPatientRecords)
}

func (h *Handler) ListRecords(c echo.Context) error {
	f := Filter{
		PatientID: c.QueryParam("patientId"),
		Type:      c.QueryParam("type"),
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	records := h.svc.List(c.Request().Context(), f)
	return c.JSON(http.StatusOK, map[string]interface{}{"records": records})
}

func (h *Handler) ListPatientRecords(c echo.Context) error {
	records := h.svc.ListByPatient(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, map[string]interface{}{"records": records})
}

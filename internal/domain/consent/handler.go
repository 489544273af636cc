package consent

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/consents", h.ListConsents)
	api.GET("/consents/:id", h.GetConsent)
	api.POST("/consents", h.CreateConsent)
	api.PUT("/consents/:id", h.UpdateConsent)
	api.PATCH("/consents/:id", h.UpdateConsent)
}

func (h *Handler) ListConsents(c echo.Context) error {
	consents := h.svc.List(c.Request().Context(), Filter{
		PatientID: c.QueryParam("patientId"),
		Status:    c.QueryParam("status"),
	})
	return c.JSON(http.StatusOK, map[string]interface{}{"consents": consents})
}

func (h *Handler) GetConsent(c echo.Context) error {
	consent, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, consent)
}

func (h *Handler) CreateConsent(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	consent, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, consent)
}

func (h *Handler) UpdateConsent(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	consent, err := h.svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, consent)
}

// bindError keeps a 413 raised while the body was streamed; every other bind
// failure is a malformed body.
func bindError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
		return httpErr
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrBadRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Consent not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

package occupancy

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	g.GET("/stats/wards", h.WardOccupancy)
	g.GET("/stats/beds", h.BedStats)
	g.GET("/stats/admissions", h.AdmissionStats)
}

func (h *Handler) WardOccupancy(c echo.Context) error {
	out, err := h.svc.WardOccupancy(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if out == nil {
		out = []*WardOccupancy{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) BedStats(c echo.Context) error {
	out, err := h.svc.BedStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) AdmissionStats(c echo.Context) error {
	out, err := h.svc.AdmissionStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

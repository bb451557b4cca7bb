package ward

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	read.GET("/wards", h.ListWards)
	read.GET("/wards/:id", h.GetWard)

	write := api.Group("", auth.RequireRole("admin", "registrar"))
	write.POST("/wards", h.CreateWard)
	write.PATCH("/wards/:id", h.UpdateWard)
	write.POST("/wards/:id/activate", h.ActivateWard)
	write.POST("/wards/:id/deactivate", h.DeactivateWard)
	write.DELETE("/wards/:id", h.DeleteWard)
}

type createWardRequest struct {
	Name      string   `json:"name"`
	Type      string   `json:"ward_type"`
	Capacity  int      `json:"capacity"`
	Floor     *int     `json:"floor,omitempty"`
	DailyRate *float64 `json:"daily_rate,omitempty"`
}

func (h *Handler) CreateWard(c echo.Context) error {
	var req createWardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w := &Ward{
		Name:      req.Name,
		Type:      req.Type,
		Capacity:  req.Capacity,
		Floor:     req.Floor,
		DailyRate: req.DailyRate,
	}
	if err := h.svc.CreateWard(c.Request().Context(), w); err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ListWards(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := Filter{Type: c.QueryParam("ward_type")}
	if active := c.QueryParam("active"); active != "" {
		b, err := strconv.ParseBool(active)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid active filter")
		}
		f.Active = &b
	}

	wards, total, err := h.svc.ListWards(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(wards, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.svc.UpdateWard(c.Request().Context(), id, patch)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ActivateWard(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *Handler) DeactivateWard(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *Handler) setActive(c echo.Context, active bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.svc.SetActive(c.Request().Context(), id, active)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	force := false
	if f := c.QueryParam("force"); f != "" {
		force, err = strconv.ParseBool(f)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid force flag")
		}
	}
	res, err := h.svc.DeleteWard(c.Request().Context(), id, force)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

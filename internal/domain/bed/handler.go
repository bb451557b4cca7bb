package bed

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
	read.GET("/beds", h.ListBeds)
	read.GET("/beds/:id", h.GetBed)
	read.GET("/wards/:wardId/available-beds", h.ListAvailableBeds)

	write := api.Group("", auth.RequireRole("admin", "registrar"))
	write.POST("/beds", h.CreateBed)
	write.PATCH("/beds/:id", h.UpdateBed)
	write.DELETE("/beds/:id", h.DeleteBed)
}

type createBedRequest struct {
	WardID    uuid.UUID `json:"ward_id"`
	BedNumber string    `json:"bed_number"`
	BedType   string    `json:"bed_type"`
	Notes     *string   `json:"notes,omitempty"`
}

func (h *Handler) CreateBed(c echo.Context) error {
	var req createBedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b := &Bed{
		WardID:    req.WardID,
		BedNumber: req.BedNumber,
		BedType:   req.BedType,
		Notes:     req.Notes,
	}
	if err := h.svc.CreateBed(c.Request().Context(), b); err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBed(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBeds(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := Filter{BedType: c.QueryParam("bed_type")}
	if wardID := c.QueryParam("ward_id"); wardID != "" {
		id, err := uuid.Parse(wardID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid ward_id")
		}
		f.WardID = id
	}
	if occupied := c.QueryParam("occupied"); occupied != "" {
		b, err := strconv.ParseBool(occupied)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid occupied filter")
		}
		f.Occupied = &b
	}
	if active := c.QueryParam("active"); active != "" {
		b, err := strconv.ParseBool(active)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid active filter")
		}
		f.Active = &b
	}

	beds, total, err := h.svc.ListBeds(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(beds, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAvailableBeds(c echo.Context) error {
	wardID, err := uuid.Parse(c.Param("wardId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ward id")
	}
	beds, err := h.svc.ListAvailableBeds(c.Request().Context(), wardID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if beds == nil {
		beds = []*Bed{}
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) UpdateBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdateBed(c.Request().Context(), id, patch)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBed(c.Request().Context(), id); err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

package admission

import (
	"net/http"
	"time"

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
	read.GET("/admissions", h.ListAdmissions)
	read.GET("/admissions/:id", h.GetAdmission)
	read.GET("/patients/:patientId/admission", h.ActiveAdmission)
	read.GET("/patients/:patientId/admissions", h.PatientHistory)
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAdmission(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := Filter{
		PatientID:     c.QueryParam("patient_id"),
		Status:        c.QueryParam("status"),
		AdmissionType: c.QueryParam("admission_type"),
	}
	if wardID := c.QueryParam("ward_id"); wardID != "" {
		id, err := uuid.Parse(wardID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid ward_id")
		}
		f.WardID = id
	}
	if bedID := c.QueryParam("bed_id"); bedID != "" {
		id, err := uuid.Parse(bedID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid bed_id")
		}
		f.BedID = id
	}
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		f.From = &t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		f.To = &t
	}

	admissions, total, err := h.svc.ListAdmissions(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg.Limit, pg.Offset))
}

func (h *Handler) ActiveAdmission(c echo.Context) error {
	a, err := h.svc.ActiveAdmission(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return apperror.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) PatientHistory(c echo.Context) error {
	history, err := h.svc.PatientHistory(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if history == nil {
		history = []*Admission{}
	}
	return c.JSON(http.StatusOK, history)
}

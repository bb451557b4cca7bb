package ward

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, *mockRepo) {
	svc, repo := newTestService()
	return NewHandler(svc), echo.New(), repo
}

func TestHandler_CreateWard(t *testing.T) {
	h, e, _ := newTestHandler()

	body := `{"name":"General-A","ward_type":"GENERAL","capacity":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wards", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateWard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var w Ward
	if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if w.Name != "General-A" {
		t.Errorf("expected General-A, got %s", w.Name)
	}
}

func TestHandler_CreateWard_ValidationMapsTo400(t *testing.T) {
	h, e, _ := newTestHandler()

	body := `{"name":"","ward_type":"GENERAL","capacity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wards", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateWard(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", he.Code)
	}
}

func TestHandler_DeleteWard_ConflictMapsTo409(t *testing.T) {
	h, e, repo := newTestHandler()

	w := &Ward{Name: "General-A", Type: TypeGeneral, Capacity: 4}
	if err := h.svc.CreateWard(nil, w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.admitted[w.ID] = 1

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(w.ID.String())

	err := h.DeleteWard(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", he.Code)
	}
}

func TestHandler_DeleteWard_Force(t *testing.T) {
	h, e, repo := newTestHandler()

	w := &Ward{Name: "General-A", Type: TypeGeneral, Capacity: 4}
	if err := h.svc.CreateWard(nil, w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.admitted[w.ID] = 1
	repo.bedCount[w.ID] = 2

	req := httptest.NewRequest(http.MethodDelete, "/?force=true", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(w.ID.String())

	if err := h.DeleteWard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var res DeleteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if res.ClosedAdmissions != 1 || res.RemovedBeds != 2 {
		t.Errorf("unexpected delete result: %+v", res)
	}
}

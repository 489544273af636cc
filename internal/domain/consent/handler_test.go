package consent

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/consentledger/internal/platform/middleware"
)

func newTestHandler(t *testing.T) (*Handler, *fixture, *echo.Echo) {
	t.Helper()
	f := newFixture(t, seedConsents()...)
	return NewHandler(f.svc), f, echo.New()
}

func TestHandler_CreateConsent(t *testing.T) {
	h, _, e := newTestHandler(t)
	body := `{"patientId":"patient-001","purpose":"research","walletAddress":"0x1234"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateConsent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["status"] != "pending" {
		t.Errorf("expected pending, got %v", got["status"])
	}
	if v, ok := got["blockchainTxHash"]; !ok || v != nil {
		t.Errorf("expected blockchainTxHash null, got %v", v)
	}
	if v, ok := got["signature"]; !ok || v != nil {
		t.Errorf("expected signature null, got %v", v)
	}
}

func TestHandler_CreateConsent_MissingFields(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"patientId":"patient-001"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateConsent(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
	if msg, _ := httpErr.Message.(string); !strings.Contains(msg, "purpose, walletAddress") {
		t.Errorf("expected missing fields in message, got %q", msg)
	}
}

func TestHandler_CreateConsent_BodyTooLarge(t *testing.T) {
	h, f, e := newTestHandler(t)
	body := `{"patientId":"patient-001","purpose":"` + strings.Repeat("x", 256) + `","walletAddress":"0x1234"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := middleware.BodyLimit("64")(h.CreateConsent)(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %v", err)
	}
	if f.backend.Writes() != 1 {
		t.Errorf("expected no write beyond the seed, got %d", f.backend.Writes())
	}
}

func TestHandler_UpdateConsent_MalformedBody(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("consent-1")

	err := h.UpdateConsent(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_CreateConsent_StorageFailure(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.backend.SetWriteError(errors.New("disk full"))
	body := `{"patientId":"patient-001","purpose":"research","walletAddress":"0x1234"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateConsent(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
}

func TestHandler_GetConsent_NotFound(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("consent-404")

	err := h.GetConsent(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListConsents(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/?patientId=patient-001&status=active", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListConsents(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Consents []Consent `json:"consents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Consents) != 1 || body.Consents[0].ID != "consent-3" {
		t.Errorf("expected consent-3 only, got %+v", body.Consents)
	}
}

func TestHandler_UpdateConsent(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"active"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("consent-1")

	if err := h.UpdateConsent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Consent
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Status != StatusActive {
		t.Errorf("expected active, got %s", got.Status)
	}
	if got.BlockchainTxHash == nil || *got.BlockchainTxHash != "0xold" {
		t.Errorf("expected blockchainTxHash preserved, got %v", got.BlockchainTxHash)
	}
}

func TestHandler_UpdateConsent_NotFound(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"active"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("consent-404")

	err := h.UpdateConsent(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

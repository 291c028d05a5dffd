package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/http/middleware"
	"github.com/pixelsc/integration-service/internal/services"
)

// ----- Fake services -----

type fakeIntakeSvc struct {
	gotKey *string
	res    *domain.IntakeResult
	err    error
}

func (f *fakeIntakeSvc) Process(ctx context.Context, req domain.IntakeRequest, key *string) (*domain.IntakeResult, error) {
	f.gotKey = key
	return f.res, f.err
}

type fakeSyncSvc struct {
	syncRes   *domain.CloseSyncResult
	syncErr   error
	createRes *domain.CreateSyncResult
	createErr error
}

func (f *fakeSyncSvc) Sync(ctx context.Context, req domain.CloseSyncRequest) (*domain.CloseSyncResult, error) {
	return f.syncRes, f.syncErr
}

func (f *fakeSyncSvc) CreateSync(ctx context.Context, req domain.CreateSyncRequest) (*domain.CreateSyncResult, error) {
	return f.createRes, f.createErr
}

// ----- Helpers -----

func newTestRouter(intake IntakeService, sync CloseSyncService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	h := New(intake, sync)
	r.POST("/intake", h.Intake)
	r.POST("/close-sync", h.CloseSync)
	r.POST("/create-sync", h.CreateSync)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body, idemKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, idemKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const intakeBody = `{
	"customer_name": "Ana Petrova",
	"phone": "+371 2000-1122",
	"device": "Laptop",
	"problem": "does not boot",
	"service_point": "Riga Central",
	"tg_user_id": 42
}`

// ----- Intake -----

func TestIntake_BadJSON(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{})
	w := postJSON(t, r, "/intake", `{"customer_name":`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != ErrCodeBadRequest {
		t.Fatalf("unexpected code %q", resp.Code)
	}
}

func TestIntake_MissingRequiredFields(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{})
	w := postJSON(t, r, "/intake", `{"customer_name":"Ana"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete payload, got %d", w.Code)
	}
}

func TestIntake_Success_PassesKey(t *testing.T) {
	issue := "ISS-1"
	svc := &fakeIntakeSvc{res: &domain.IntakeResult{
		Success:            true,
		ZammadTicketID:     101,
		ZammadTicketNumber: "67099",
		ERPNextIssue:       &issue,
	}}
	r := newTestRouter(svc, &fakeSyncSvc{})

	w := postJSON(t, r, "/intake", intakeBody, "abc-1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotKey == nil || *svc.gotKey != "abc-1" {
		t.Fatalf("idempotency key not forwarded: %v", svc.gotKey)
	}
	var res domain.IntakeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if res.ZammadTicketNumber != "67099" || res.ERPNextIssue == nil {
		t.Fatalf("unexpected body: %+v", res)
	}
}

func TestIntake_NoKeyHeader(t *testing.T) {
	svc := &fakeIntakeSvc{res: &domain.IntakeResult{Success: true}}
	r := newTestRouter(svc, &fakeSyncSvc{})
	w := postJSON(t, r, "/intake", intakeBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.gotKey != nil {
		t.Fatalf("keyless request must forward nil key, got %q", *svc.gotKey)
	}
}

func TestIntake_Conflict(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{err: services.ErrIdempotencyConflict}, &fakeSyncSvc{})
	w := postJSON(t, r, "/intake", intakeBody, "abc-1")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeConflict) {
		t.Fatalf("expected conflict code, got %s", w.Body.String())
	}
}

func TestIntake_GatewayFailure(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{err: services.ErrGateway}, &fakeSyncSvc{})
	w := postJSON(t, r, "/intake", intakeBody, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

// ----- CloseSync / CreateSync -----

func TestCloseSync_Success(t *testing.T) {
	issue := "ISS-1"
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{syncRes: &domain.CloseSyncResult{
		Success:            true,
		ZammadTicketNumber: "67099",
		ERPNextIssue:       &issue,
		Updated:            true,
	}})
	w := postJSON(t, r, "/close-sync", `{"zammad_ticket_number":"67099","status":"done"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res domain.CloseSyncResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Updated {
		t.Fatalf("unexpected body: %+v", res)
	}
}

func TestCloseSync_BadBody(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{})
	w := postJSON(t, r, "/close-sync", `{"status":"done"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("ticket number is required; expected 400, got %d", w.Code)
	}
}

func TestCloseSync_GatewayFailure(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{syncErr: services.ErrGateway})
	w := postJSON(t, r, "/close-sync", `{"zammad_ticket_number":"67099","status":"done"}`, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestCreateSync_Success(t *testing.T) {
	issue := "ISS-2"
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{createRes: &domain.CreateSyncResult{
		Success:            true,
		ZammadTicketID:     101,
		ZammadTicketNumber: "67099",
		ERPNextIssue:       &issue,
		Created:            true,
	}})
	w := postJSON(t, r, "/create-sync", `{"zammad_ticket_id":101,"zammad_ticket_number":"67099"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res domain.CreateSyncResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Created || res.ERPNextIssue == nil {
		t.Fatalf("unexpected body: %+v", res)
	}
}

func TestCreateSync_GatewayFailure(t *testing.T) {
	r := newTestRouter(&fakeIntakeSvc{}, &fakeSyncSvc{createErr: services.ErrGateway})
	w := postJSON(t, r, "/create-sync", `{"zammad_ticket_id":101,"zammad_ticket_number":"67099"}`, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/erpnext"
	"github.com/pixelsc/integration-service/internal/repo"
	"github.com/pixelsc/integration-service/internal/zammad"
)

// ----- Fakes -----

type fakeHelpdesk struct {
	tickets    int
	links      int
	linkedRef  string
	linkedID   int64
	createErr  error
	linkErr    error
	nextTicket zammad.TicketRef
}

func (f *fakeHelpdesk) CreateTicket(ctx context.Context, req domain.IntakeRequest) (zammad.TicketRef, error) {
	f.tickets++
	if f.createErr != nil {
		return zammad.TicketRef{}, f.createErr
	}
	return f.nextTicket, nil
}

func (f *fakeHelpdesk) SetTicketERPIssue(ctx context.Context, ticketID int64, issueRef string) error {
	f.links++
	f.linkedID, f.linkedRef = ticketID, issueRef
	return f.linkErr
}

type fakeERP struct {
	creates   int
	closes    int
	closedRef string
	closeReq  domain.CloseSyncRequest
	createRes erpnext.CreateResult
	createErr error
	closeOK   bool
	closeErr  error
}

func (f *fakeERP) CreateIssue(ctx context.Context, req domain.IntakeRequest, ticketNumber string) (erpnext.CreateResult, error) {
	f.creates++
	return f.createRes, f.createErr
}

func (f *fakeERP) CreateIssueFromTicket(ctx context.Context, req domain.CreateSyncRequest) (erpnext.CreateResult, error) {
	f.creates++
	return f.createRes, f.createErr
}

func (f *fakeERP) SyncClose(ctx context.Context, issueRef string, req domain.CloseSyncRequest) (bool, error) {
	f.closes++
	f.closedRef, f.closeReq = issueRef, req
	return f.closeOK, f.closeErr
}

// ----- Helpers -----

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.IntakeRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func strptr(s string) *string { return &s }

func intakeReq() domain.IntakeRequest {
	return domain.IntakeRequest{
		CustomerName: "Ana Petrova",
		Phone:        "+371 2000-1122",
		Device:       "Laptop",
		Problem:      "does not boot",
		ServicePoint: "Riga Central",
		TGUserID:     42,
	}
}

// ----- Tests -----

func TestProcess_CreatesAndPersists(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{nextTicket: zammad.TicketRef{TicketID: 101, TicketNumber: "67099"}}
	erp := &fakeERP{createRes: erpnext.CreateResult{Issue: "ISS-1", Outcome: erpnext.OutcomeOK}}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: erp}

	key := "abc-1"
	res, err := s.Process(context.Background(), intakeReq(), &key)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success || res.Replayed {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ZammadTicketID != 101 || res.ZammadTicketNumber != "67099" {
		t.Fatalf("ticket ref not propagated: %+v", res)
	}
	if res.ERPNextIssue == nil || *res.ERPNextIssue != "ISS-1" {
		t.Fatalf("issue ref not propagated: %+v", res)
	}
	if hd.links != 1 || hd.linkedID != 101 || hd.linkedRef != "ISS-1" {
		t.Fatalf("cross-link not applied: %+v", hd)
	}

	rec, err := repo.FindIntakeByKey(context.Background(), db, key)
	if err != nil {
		t.Fatalf("ledger row missing: %v", err)
	}
	if rec.Status != domain.StatusSuccess || rec.ResponseBody == nil {
		t.Fatalf("unexpected ledger row: %+v", rec)
	}
}

func TestProcess_ReplaySkipsGateways(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{nextTicket: zammad.TicketRef{TicketID: 101, TicketNumber: "67099"}}
	erp := &fakeERP{createRes: erpnext.CreateResult{Issue: "ISS-1", Outcome: erpnext.OutcomeOK}}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: erp}

	key := "abc-1"
	req := intakeReq()
	if _, err := s.Process(context.Background(), req, &key); err != nil {
		t.Fatalf("first Process: %v", err)
	}

	res, err := s.Process(context.Background(), req, &key)
	if err != nil {
		t.Fatalf("replay Process: %v", err)
	}
	if !res.Replayed {
		t.Fatalf("expected replayed result")
	}
	if res.ZammadTicketID != 101 || res.ERPNextIssue == nil || *res.ERPNextIssue != "ISS-1" {
		t.Fatalf("replay must serve the stored response: %+v", res)
	}
	if hd.tickets != 1 || erp.creates != 1 {
		t.Fatalf("replay must not touch the gateways: tickets=%d creates=%d", hd.tickets, erp.creates)
	}
}

func TestProcess_KeyReuseDifferentPayload_Conflict(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{nextTicket: zammad.TicketRef{TicketID: 1, TicketNumber: "1"}}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: &fakeERP{createRes: erpnext.CreateResult{Outcome: erpnext.OutcomeSkipped}}}

	key := "abc-1"
	if _, err := s.Process(context.Background(), intakeReq(), &key); err != nil {
		t.Fatalf("first Process: %v", err)
	}

	other := intakeReq()
	other.Problem = "completely different"
	_, err := s.Process(context.Background(), other, &key)
	if !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
	if hd.tickets != 1 {
		t.Fatalf("conflicting request must not reach the helpdesk")
	}
}

func TestProcess_HelpdeskFailure_PersistsErrorAndAllowsRetry(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{createErr: errors.New("zammad: 503")}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: &fakeERP{createRes: erpnext.CreateResult{Outcome: erpnext.OutcomeSkipped}}}

	key := "abc-1"
	req := intakeReq()
	_, err := s.Process(context.Background(), req, &key)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}

	rec, ferr := repo.FindIntakeByKey(context.Background(), db, key)
	if ferr != nil {
		t.Fatalf("error record missing: %v", ferr)
	}
	if rec.Status != domain.StatusError || rec.ErrorText == nil {
		t.Fatalf("unexpected error record: %+v", rec)
	}

	// The stored error must not block a retry with the same key.
	hd.createErr = nil
	hd.nextTicket = zammad.TicketRef{TicketID: 2, TicketNumber: "2"}
	res, err := s.Process(context.Background(), req, &key)
	if err != nil {
		t.Fatalf("retry after error: %v", err)
	}
	if res.Replayed || res.ZammadTicketID != 2 {
		t.Fatalf("retry must run fresh: %+v", res)
	}
	rec2, _ := repo.FindIntakeByKey(context.Background(), db, key)
	if rec2 == nil || rec2.Status != domain.StatusSuccess {
		t.Fatalf("error row not upgraded: %+v", rec2)
	}
}

func TestProcess_ERPFailureDegradesToNullReference(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{nextTicket: zammad.TicketRef{TicketID: 3, TicketNumber: "3"}}
	erp := &fakeERP{createRes: erpnext.CreateResult{Outcome: erpnext.OutcomeFailed}, createErr: errors.New("erpnext: 500")}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: erp}

	res, err := s.Process(context.Background(), intakeReq(), nil)
	if err != nil {
		t.Fatalf("erp failure must not fail the intake: %v", err)
	}
	if !res.Success || res.ERPNextIssue != nil {
		t.Fatalf("expected success with null issue, got %+v", res)
	}
	if hd.links != 0 {
		t.Fatalf("no cross-link without an issue")
	}
}

func TestProcess_CrossLinkFailureStillSucceeds(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{
		nextTicket: zammad.TicketRef{TicketID: 4, TicketNumber: "4"},
		linkErr:    errors.New("zammad: field rejected"),
	}
	erp := &fakeERP{createRes: erpnext.CreateResult{Issue: "ISS-9", Outcome: erpnext.OutcomeOK}}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: erp}

	res, err := s.Process(context.Background(), intakeReq(), nil)
	if err != nil {
		t.Fatalf("cross-link failure must not fail the intake: %v", err)
	}
	if res.ERPNextIssue == nil || *res.ERPNextIssue != "ISS-9" {
		t.Fatalf("issue ref must survive a failed cross-link: %+v", res)
	}
}

func TestProcess_KeylessRunsEveryTime(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{nextTicket: zammad.TicketRef{TicketID: 5, TicketNumber: "5"}}
	s := &IntakeService{DB: db, Helpdesk: hd, ERP: &fakeERP{createRes: erpnext.CreateResult{Outcome: erpnext.OutcomeSkipped}}}

	req := intakeReq()
	for i := 0; i < 3; i++ {
		res, err := s.Process(context.Background(), req, nil)
		if err != nil {
			t.Fatalf("keyless Process #%d: %v", i, err)
		}
		if res.Replayed || res.IdempotencyKey != nil {
			t.Fatalf("keyless requests are never replays: %+v", res)
		}
	}
	if hd.tickets != 3 {
		t.Fatalf("keyless requests must always run, got %d tickets", hd.tickets)
	}

	var count int64
	db.Model(&domain.IntakeRecord{}).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 untracked rows, got %d", count)
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/erpnext"
	"github.com/pixelsc/integration-service/internal/repo"
	"github.com/pixelsc/integration-service/internal/zammad"
)

func closeReq() domain.CloseSyncRequest {
	return domain.CloseSyncRequest{
		ZammadTicketNumber: "67099",
		Status:             "done",
	}
}

func TestSync_ExplicitReference(t *testing.T) {
	db := newServiceDB(t)
	erp := &fakeERP{closeOK: true}
	s := &CloseSyncService{DB: db, Helpdesk: &fakeHelpdesk{}, ERP: erp}

	req := closeReq()
	req.ERPIssueRef = strptr("ISS-7")
	res, err := s.Sync(context.Background(), req)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Success || !res.Updated || res.ERPNextIssue == nil || *res.ERPNextIssue != "ISS-7" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if erp.closedRef != "ISS-7" {
		t.Fatalf("explicit reference must be used as-is, got %q", erp.closedRef)
	}
}

func TestSync_ResolvesReferenceFromLedger(t *testing.T) {
	db := newServiceDB(t)

	// Seed a recorded intake outcome linking ticket 67099 to ISS-2026-00099.
	issue := "ISS-2026-00099"
	stored := domain.IntakeResult{Success: true, ZammadTicketNumber: "67099", ERPNextIssue: &issue}
	raw, _ := json.Marshal(stored)
	key := "seed"
	if err := repo.SaveIntakeSuccess(context.Background(), db, &key, "h", `{}`, string(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	erp := &fakeERP{closeOK: true}
	s := &CloseSyncService{DB: db, Helpdesk: &fakeHelpdesk{}, ERP: erp}

	res, err := s.Sync(context.Background(), closeReq())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Updated || res.ERPNextIssue == nil || *res.ERPNextIssue != issue {
		t.Fatalf("ledger resolution failed: %+v", res)
	}
	if erp.closedRef != issue {
		t.Fatalf("resolved reference not passed to gateway: %q", erp.closedRef)
	}
}

func TestSync_UnlinkedTicketIsSuccessNoop(t *testing.T) {
	db := newServiceDB(t)
	erp := &fakeERP{closeOK: true}
	s := &CloseSyncService{DB: db, Helpdesk: &fakeHelpdesk{}, ERP: erp}

	res, err := s.Sync(context.Background(), closeReq())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Success || res.Updated || res.ERPNextIssue != nil {
		t.Fatalf("unlinked ticket must be a success no-op: %+v", res)
	}
	if erp.closes != 0 {
		t.Fatalf("gateway must not be called without a reference")
	}
}

func TestSync_GatewayFailure(t *testing.T) {
	db := newServiceDB(t)
	erp := &fakeERP{closeErr: errors.New("erpnext: 500")}
	s := &CloseSyncService{DB: db, Helpdesk: &fakeHelpdesk{}, ERP: erp}

	req := closeReq()
	req.ERPIssueRef = strptr("ISS-7")
	_, err := s.Sync(context.Background(), req)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestCreateSync_ExistingReferenceShortCircuits(t *testing.T) {
	db := newServiceDB(t)
	erp := &fakeERP{}
	s := &CloseSyncService{DB: db, Helpdesk: &fakeHelpdesk{}, ERP: erp}

	res, err := s.CreateSync(context.Background(), domain.CreateSyncRequest{
		ZammadTicketID:     101,
		ZammadTicketNumber: "67099",
		ERPIssueRef:        strptr("ISS-7"),
	})
	if err != nil {
		t.Fatalf("CreateSync: %v", err)
	}
	if res.Created || res.ERPNextIssue == nil || *res.ERPNextIssue != "ISS-7" {
		t.Fatalf("existing reference must short-circuit: %+v", res)
	}
	if erp.creates != 0 {
		t.Fatalf("gateway must not be called for an already linked ticket")
	}
}

func TestCreateSync_CreatesAndLinks(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{}
	erp := &fakeERP{createRes: erpnext.CreateResult{Issue: "ISS-8", Outcome: erpnext.OutcomeOK}}
	s := &CloseSyncService{DB: db, Helpdesk: hd, ERP: erp}

	res, err := s.CreateSync(context.Background(), domain.CreateSyncRequest{
		ZammadTicketID:     101,
		ZammadTicketNumber: "67099",
	})
	if err != nil {
		t.Fatalf("CreateSync: %v", err)
	}
	if !res.Created || res.ERPNextIssue == nil || *res.ERPNextIssue != "ISS-8" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if hd.links != 1 || hd.linkedID != 101 || hd.linkedRef != "ISS-8" {
		t.Fatalf("cross-link not applied: %+v", hd)
	}
}

func TestCreateSync_SkippedIntegration(t *testing.T) {
	db := newServiceDB(t)
	hd := &fakeHelpdesk{}
	erp := &fakeERP{createRes: erpnext.CreateResult{Outcome: erpnext.OutcomeSkipped}}
	s := &CloseSyncService{DB: db, Helpdesk: hd, ERP: erp}

	res, err := s.CreateSync(context.Background(), domain.CreateSyncRequest{
		ZammadTicketID:     101,
		ZammadTicketNumber: "67099",
	})
	if err != nil {
		t.Fatalf("CreateSync: %v", err)
	}
	if !res.Success || res.Created || res.ERPNextIssue != nil {
		t.Fatalf("skipped integration must report created=false: %+v", res)
	}
	if hd.links != 0 {
		t.Fatalf("no cross-link without an issue")
	}
}

func TestCreateSync_GatewayFailure(t *testing.T) {
	db := newServiceDB(t)
	erp := &fakeERP{createRes: erpnext.CreateResult{Outcome: erpnext.OutcomeFailed}, createErr: errors.New("erpnext: 500")}
	s := &CloseSyncService{DB: db, Helpdesk: &fakeHelpdesk{}, ERP: erp}

	_, err := s.CreateSync(context.Background(), domain.CreateSyncRequest{
		ZammadTicketID:     101,
		ZammadTicketNumber: "67099",
	})
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

// Compile-time checks that the real gateways satisfy the service contracts.
var (
	_ HelpdeskGateway = (*zammad.Client)(nil)
	_ ERPGateway      = (*erpnext.Client)(nil)
)

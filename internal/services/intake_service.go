// Package services – IntakeService
//
// This file implements the intake orchestrator: the single entry point that
// turns a validated intake event into a helpdesk ticket, a best-effort ERP
// issue, a cross-link between the two, and a durable ledger record.
//
// The sequencing is deliberate: the helpdesk ticket is the primary artifact
// the customer-facing flow depends on, so it is created first and its failure
// aborts the request. The ERP issue and the cross-link patch are enrichments
// that degrade gracefully: their failure downgrades to a null reference and a
// warning, never to a failed intake.
//
// Observability: the public method is OpenTelemetry-instrumented; outcome
// counters are recorded per terminal state.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/erpnext"
	"github.com/pixelsc/integration-service/internal/repo"
	"github.com/pixelsc/integration-service/internal/zammad"
)

// HelpdeskGateway is the contract the orchestrator requires from the
// helpdesk system. Implementations must honor the context for timeouts.
type HelpdeskGateway interface {
	// CreateTicket resolves the customer identity and creates a ticket.
	CreateTicket(ctx context.Context, req domain.IntakeRequest) (zammad.TicketRef, error)
	// SetTicketERPIssue patches the ticket with the ERP cross-reference.
	SetTicketERPIssue(ctx context.Context, ticketID int64, issueRef string) error
}

// ERPGateway is the contract the orchestrator and reconciler require from
// the ERP system. A disabled integration reports OutcomeSkipped, not errors.
type ERPGateway interface {
	// CreateIssue creates an issue for an intake event.
	CreateIssue(ctx context.Context, req domain.IntakeRequest, ticketNumber string) (erpnext.CreateResult, error)
	// CreateIssueFromTicket creates an issue for an existing helpdesk ticket.
	CreateIssueFromTicket(ctx context.Context, req domain.CreateSyncRequest) (erpnext.CreateResult, error)
	// SyncClose patches an issue with closure data.
	SyncClose(ctx context.Context, issueRef string, req domain.CloseSyncRequest) (bool, error)
}

// IntakeService coordinates the dedupe ledger and the two external gateways.
// It holds no per-request state and is safe for concurrent use.
type IntakeService struct {
	DB       *gorm.DB
	Helpdesk HelpdeskGateway
	ERP      ERPGateway
}

// Process handles one intake request under the idempotency contract.
//
// With a key and a stored record: a fingerprint mismatch is rejected as
// ErrIdempotencyConflict; a prior success is replayed verbatim (zero gateway
// calls); a prior error falls through to a fresh attempt. Without a key, or
// without a stored record, the gateways are driven in sequence and the
// outcome is persisted.
func (s *IntakeService) Process(ctx context.Context, req domain.IntakeRequest, key *string) (*domain.IntakeResult, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Process",
		trace.WithAttributes(
			attribute.Bool("intake.has_key", key != nil),
			attribute.String("intake.service_point", req.ServicePoint),
		),
	)
	defer span.End()

	canon, err := domain.CanonicalJSON(req)
	if err != nil {
		return nil, err
	}
	hash, err := domain.Fingerprint(req)
	if err != nil {
		return nil, err
	}

	if key != nil {
		rec, err := repo.FindIntakeByKey(ctx, s.DB, *key)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			// First attempt for this key.
		case err != nil:
			return nil, err
		case rec.RequestHash != hash:
			intakeOutcomes.WithLabelValues("conflict").Inc()
			return nil, ErrIdempotencyConflict
		case rec.Status == domain.StatusSuccess && rec.ResponseBody != nil:
			var res domain.IntakeResult
			if err := json.Unmarshal([]byte(*rec.ResponseBody), &res); err != nil {
				return nil, fmt.Errorf("decode stored response: %w", err)
			}
			res.Replayed = true
			intakeOutcomes.WithLabelValues("replayed").Inc()
			span.SetAttributes(attribute.Bool("intake.replayed", true))
			return &res, nil
		default:
			// Prior attempt failed; errors are not cached as terminal.
		}
	}

	ticket, err := s.Helpdesk.CreateTicket(ctx, req)
	if err != nil {
		if serr := repo.SaveIntakeError(ctx, s.DB, key, hash, canon, err.Error()); serr != nil {
			log.Error().Err(serr).Msg("intake: persist error record failed")
		}
		intakeOutcomes.WithLabelValues("helpdesk_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	// ERP issue creation is best-effort enrichment: failure or a disabled
	// integration downgrades to a null reference.
	var issueRef *string
	erpRes, erpErr := s.ERP.CreateIssue(ctx, req, ticket.TicketNumber)
	switch {
	case erpErr != nil:
		erpEnrichment.WithLabelValues(string(erpnext.OutcomeFailed)).Inc()
		log.Warn().Err(erpErr).Str("ticket_number", ticket.TicketNumber).
			Msg("intake: erp issue creation failed, continuing without reference")
	case erpRes.Outcome == erpnext.OutcomeOK && erpRes.Issue != "":
		erpEnrichment.WithLabelValues(string(erpnext.OutcomeOK)).Inc()
		issueRef = &erpRes.Issue
	default:
		erpEnrichment.WithLabelValues(string(erpRes.Outcome)).Inc()
	}

	// Cross-link the ticket with the ERP reference, best-effort.
	if issueRef != nil {
		if err := s.Helpdesk.SetTicketERPIssue(ctx, ticket.TicketID, *issueRef); err != nil {
			log.Warn().Err(err).Int64("ticket_id", ticket.TicketID).
				Msg("intake: erp cross-link failed")
		}
	}

	res := domain.IntakeResult{
		Success:            true,
		IdempotencyKey:     key,
		ZammadTicketID:     ticket.TicketID,
		ZammadTicketNumber: ticket.TicketNumber,
		ERPNextIssue:       issueRef,
		Replayed:           false,
	}
	respBody, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	if err := repo.SaveIntakeSuccess(ctx, s.DB, key, hash, canon, string(respBody)); err != nil {
		// The ticket exists but the ledger write failed; surfacing the error
		// lets the caller retry with the same key once the store recovers.
		return nil, fmt.Errorf("persist intake outcome: %w", err)
	}

	intakeOutcomes.WithLabelValues("created").Inc()
	span.SetAttributes(attribute.String("intake.ticket_number", ticket.TicketNumber))
	return &res, nil
}

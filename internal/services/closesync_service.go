// Package services – CloseSyncService
//
// This file implements the reconciliation side of the integration: applying
// ticket-closure data back onto the linked ERP issue, and late-linking ERP
// issues for tickets created before the integration was enabled.
//
// A missing ERP linkage is a normal state, not an error: an order may never
// have had an ERP counterpart (integration disabled, or the enrichment was
// degraded at intake time). Reconciliation reports updated=false in that case
// and touches nothing.
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/erpnext"
	"github.com/pixelsc/integration-service/internal/repo"
)

// CloseSyncService reconciles closure events against the ERP system using
// the intake ledger's reverse index when the caller omits the reference.
type CloseSyncService struct {
	DB       *gorm.DB
	Helpdesk HelpdeskGateway
	ERP      ERPGateway
}

// Sync applies a closure event to the linked ERP issue.
//
// The reference is taken from the payload when supplied, otherwise resolved
// through the ledger by helpdesk ticket number. No resolvable reference is a
// success with updated=false; an ERP patch failure is a gateway error.
func (s *CloseSyncService) Sync(ctx context.Context, req domain.CloseSyncRequest) (*domain.CloseSyncResult, error) {
	tr := otel.Tracer("services/CloseSyncService")
	ctx, span := tr.Start(ctx, "Sync",
		trace.WithAttributes(attribute.String("close.ticket_number", req.ZammadTicketNumber)),
	)
	defer span.End()

	ref := ""
	if req.ERPIssueRef != nil {
		ref = *req.ERPIssueRef
	}
	if ref == "" {
		found, err := repo.FindERPIssueByTicketNumber(ctx, s.DB, req.ZammadTicketNumber)
		if err != nil {
			return nil, err
		}
		ref = found
	}

	if ref == "" {
		closeSyncOutcomes.WithLabelValues("unlinked").Inc()
		log.Info().Str("ticket_number", req.ZammadTicketNumber).
			Msg("close sync: no erp linkage, nothing to update")
		return &domain.CloseSyncResult{
			Success:            true,
			ZammadTicketNumber: req.ZammadTicketNumber,
			ERPNextIssue:       nil,
			Updated:            false,
		}, nil
	}

	updated, err := s.ERP.SyncClose(ctx, ref, req)
	if err != nil {
		closeSyncOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	closeSyncOutcomes.WithLabelValues("updated").Inc()
	span.SetAttributes(attribute.String("close.erp_issue", ref))
	return &domain.CloseSyncResult{
		Success:            true,
		ZammadTicketNumber: req.ZammadTicketNumber,
		ERPNextIssue:       &ref,
		Updated:            updated,
	}, nil
}

// CreateSync creates an ERP issue for an already existing helpdesk ticket and
// cross-links it. A payload that already carries a reference short-circuits
// with created=false; a skipped (disabled) integration also reports
// created=false rather than an error.
func (s *CloseSyncService) CreateSync(ctx context.Context, req domain.CreateSyncRequest) (*domain.CreateSyncResult, error) {
	tr := otel.Tracer("services/CloseSyncService")
	ctx, span := tr.Start(ctx, "CreateSync",
		trace.WithAttributes(attribute.String("close.ticket_number", req.ZammadTicketNumber)),
	)
	defer span.End()

	if req.ERPIssueRef != nil && *req.ERPIssueRef != "" {
		return &domain.CreateSyncResult{
			Success:            true,
			ZammadTicketID:     req.ZammadTicketID,
			ZammadTicketNumber: req.ZammadTicketNumber,
			ERPNextIssue:       req.ERPIssueRef,
			Created:            false,
		}, nil
	}

	res, err := s.ERP.CreateIssueFromTicket(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if res.Outcome != erpnext.OutcomeOK || res.Issue == "" {
		return &domain.CreateSyncResult{
			Success:            true,
			ZammadTicketID:     req.ZammadTicketID,
			ZammadTicketNumber: req.ZammadTicketNumber,
			ERPNextIssue:       nil,
			Created:            false,
		}, nil
	}

	if err := s.Helpdesk.SetTicketERPIssue(ctx, req.ZammadTicketID, res.Issue); err != nil {
		log.Warn().Err(err).Int64("ticket_id", req.ZammadTicketID).
			Msg("create sync: erp cross-link failed")
	}

	issue := res.Issue
	span.SetAttributes(attribute.String("close.erp_issue", issue))
	return &domain.CreateSyncResult{
		Success:            true,
		ZammadTicketID:     req.ZammadTicketID,
		ZammadTicketNumber: req.ZammadTicketNumber,
		ERPNextIssue:       &issue,
		Created:            true,
	}, nil
}

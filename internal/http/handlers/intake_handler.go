// Intake HTTP handler.
//
// This file exposes the intake endpoint:
//   - POST /intake  (create a service order across the helpdesk and ERP)
//
// Handlers are transport-thin: they validate input, call the orchestration
// service, and translate results into HTTP responses. The idempotency key is
// taken from the validated header (stashed by middleware), never from the
// body.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/http/middleware"
	"github.com/pixelsc/integration-service/internal/services"
)

//
// Service contracts (context-aware)
//

// IntakeService defines the orchestration operation consumed by the intake
// handler. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type IntakeService interface {
	// Process runs one intake under the idempotency contract.
	Process(ctx context.Context, req domain.IntakeRequest, key *string) (*domain.IntakeResult, error)
}

// CloseSyncService defines the reconciliation operations consumed by the
// sync handlers (see sync_handler.go).
type CloseSyncService interface {
	// Sync applies a closure event to the linked ERP issue.
	Sync(ctx context.Context, req domain.CloseSyncRequest) (*domain.CloseSyncResult, error)
	// CreateSync late-links an ERP issue to an existing helpdesk ticket.
	CreateSync(ctx context.Context, req domain.CreateSyncRequest) (*domain.CreateSyncResult, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for intake and reconciliation. It
// depends on abstract service interfaces to keep transport concerns separate
// from orchestration logic.
type Handlers struct {
	intakeSvc IntakeService
	syncSvc   CloseSyncService
}

// New constructs a Handlers instance bound to the given services.
func New(intakeSvc IntakeService, syncSvc CloseSyncService) *Handlers {
	return &Handlers{intakeSvc: intakeSvc, syncSvc: syncSvc}
}

// Intake godoc
// @ID          intake
// @Summary     Create a service order
// @Description Creates a helpdesk ticket and (best-effort) an ERP issue for an intake event. Replays with the same Idempotency-Key and body return the recorded response without re-invoking the external systems.
// @Tags        Intake
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string                 true   "Bearer token"
// @Param       Idempotency-Key  header  string                 false  "Caller-generated key scoping this logical submission"
// @Param       body             body    domain.IntakeRequest   true   "Intake payload"
//
// @Success     200  {object}  domain.IntakeResult
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing/invalid token"
// @Failure     409  {object}  handlers.ErrorResponse  "Key reused with a different payload"
// @Failure     502  {object}  handlers.ErrorResponse  "Helpdesk failure"
// @Router      /intake [post]
func (h *Handlers) Intake(c *gin.Context) {
	var req domain.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	var key *string
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		key = &k
	}

	res, err := h.intakeSvc.Process(c.Request.Context(), req, key)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIdempotencyConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrGateway):
			fail(c, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

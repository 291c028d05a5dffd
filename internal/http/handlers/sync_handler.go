// Reconciliation HTTP handlers.
//
// This file exposes the helpdesk-to-ERP reconciliation endpoints:
//   - POST /close-sync   (apply closure data to the linked ERP issue)
//   - POST /create-sync  (late-link an ERP issue to an existing ticket)
//
// Both are driven by helpdesk-side automation (webhooks/triggers) keyed by
// the human-facing ticket number.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelsc/integration-service/internal/domain"
	"github.com/pixelsc/integration-service/internal/services"
)

// CloseSync godoc
// @ID          closeSync
// @Summary     Sync ticket closure into the ERP issue
// @Description Patches the ERP issue linked to a helpdesk ticket with closure and financial data. A ticket with no ERP linkage is a success with updated=false.
// @Tags        Sync
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string                   true  "Bearer token"
// @Param       body           body    domain.CloseSyncRequest  true  "Closure payload"
//
// @Success     200  {object}  domain.CloseSyncResult
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing/invalid token"
// @Failure     502  {object}  handlers.ErrorResponse  "ERP failure"
// @Router      /close-sync [post]
func (h *Handlers) CloseSync(c *gin.Context) {
	var req domain.CloseSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.syncSvc.Sync(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrGateway) {
			fail(c, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// CreateSync godoc
// @ID          createSync
// @Summary     Create an ERP issue for an existing ticket
// @Description Creates an ERP issue for a helpdesk ticket that has none yet and cross-links it. A payload already carrying a reference returns created=false.
// @Tags        Sync
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string                    true  "Bearer token"
// @Param       body           body    domain.CreateSyncRequest  true  "Link payload"
//
// @Success     200  {object}  domain.CreateSyncResult
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing/invalid token"
// @Failure     502  {object}  handlers.ErrorResponse  "ERP failure"
// @Router      /create-sync [post]
func (h *Handlers) CreateSync(c *gin.Context) {
	var req domain.CreateSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.syncSvc.CreateSync(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrGateway) {
			fail(c, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

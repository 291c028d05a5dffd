// Package erpnext implements the ERP gateway. It creates issue records for
// intake events and patches them with closure/financial data during
// reconciliation.
//
// The gateway is an enrichment, not the primary artifact: when the
// integration is disabled or unconfigured every create reports an explicit
// "skipped" outcome instead of an error, so the orchestrator never has to
// distinguish "off" from "succeeded with nothing".
package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pixelsc/integration-service/internal/config"
	"github.com/pixelsc/integration-service/internal/domain"
)

// Outcome tags the result of a best-effort gateway call so callers make the
// degrade-gracefully decision explicitly.
type Outcome string

// Possible outcomes of a create call.
const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// CreateResult reports an issue-creation attempt. Issue is empty unless
// Outcome is OutcomeOK.
type CreateResult struct {
	Issue   string
	Outcome Outcome
}

// Client is the ERP gateway. Safe for concurrent use.
type Client struct {
	cfg  config.ERPNextConfig
	http *http.Client
}

// New constructs a Client with a bounded-timeout HTTP client.
func New(cfg config.ERPNextConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the integration is switched on and has credentials.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != "" && c.cfg.APISecret != ""
}

// CreateIssue creates an ERP issue for an intake event, cross-referencing the
// helpdesk ticket number. A disabled integration yields OutcomeSkipped with
// no error.
func (c *Client) CreateIssue(ctx context.Context, req domain.IntakeRequest, ticketNumber string) (CreateResult, error) {
	if !c.Enabled() {
		return CreateResult{Outcome: OutcomeSkipped}, nil
	}

	handle := ""
	if req.TGUsername != nil {
		handle = *req.TGUsername
	}
	if ticketNumber == "" {
		ticketNumber = "-"
	}
	payload := map[string]any{
		"subject":   fmt.Sprintf("Intake / %s / %s", req.Device, req.CustomerName),
		"raised_by": req.CustomerName,
		"description": strings.Join([]string{
			"Phone: " + req.Phone,
			"Device: " + req.Device,
			"Problem: " + req.Problem,
			"Service point: " + req.ServicePoint,
			fmt.Sprintf("Requester: %d (@%s)", req.TGUserID, handle),
			"Helpdesk ticket: " + ticketNumber,
		}, "\n"),
	}

	name, err := c.postIssue(ctx, payload)
	if err != nil {
		return CreateResult{Outcome: OutcomeFailed}, fmt.Errorf("erpnext: create issue: %w", err)
	}
	return CreateResult{Issue: name, Outcome: OutcomeOK}, nil
}

// CreateIssueFromTicket creates an ERP issue for an already existing helpdesk
// ticket (late linking via the create-sync endpoint).
func (c *Client) CreateIssueFromTicket(ctx context.Context, req domain.CreateSyncRequest) (CreateResult, error) {
	if !c.Enabled() {
		return CreateResult{Outcome: OutcomeSkipped}, nil
	}

	subject := "Intake / helpdesk ticket " + req.ZammadTicketNumber
	if req.Device != nil && req.CustomerName != nil {
		subject = fmt.Sprintf("Intake / %s / %s", *req.Device, *req.CustomerName)
	}
	lines := []string{"Helpdesk ticket: " + req.ZammadTicketNumber}
	if req.CustomerName != nil && *req.CustomerName != "" {
		lines = append(lines, "Customer: "+*req.CustomerName)
	}
	if req.Device != nil && *req.Device != "" {
		lines = append(lines, "Device: "+*req.Device)
	}
	if req.Problem != nil && *req.Problem != "" {
		lines = append(lines, "Problem: "+*req.Problem)
	}
	payload := map[string]any{
		"subject":     subject,
		"description": strings.Join(lines, "\n"),
	}

	name, err := c.postIssue(ctx, payload)
	if err != nil {
		return CreateResult{Outcome: OutcomeFailed}, fmt.Errorf("erpnext: create issue from ticket: %w", err)
	}
	return CreateResult{Issue: name, Outcome: OutcomeOK}, nil
}

// SyncClose patches an issue to closed state with the supplied financial and
// ownership fields. If the target installation rejects the custom fields, the
// patch is retried once with only status and description: losing detail beats
// leaving the issue open.
func (c *Client) SyncClose(ctx context.Context, issueRef string, req domain.CloseSyncRequest) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	desc := closeDescription(req)
	full := map[string]any{
		"status":      "Closed",
		"description": desc,
	}
	if req.Owner != nil {
		full["custom_sc_owner"] = *req.Owner
	}
	if req.ApprovedPrice != nil {
		full["custom_sc_approved_price"] = *req.ApprovedPrice
	}
	if req.RepairCost != nil {
		full["custom_sc_repair_cost"] = *req.RepairCost
	}
	if req.WarrantyDays != nil {
		full["custom_sc_warranty_days"] = *req.WarrantyDays
	}
	if req.NetProfit != nil {
		full["custom_sc_net_profit"] = *req.NetProfit
	}

	path := c.issuePath() + "/" + issueRef
	status, err := c.doJSON(ctx, http.MethodPut, path, full, nil)
	if err == nil && status < http.StatusBadRequest {
		return true, nil
	}
	if err != nil && status == 0 {
		// Transport-level failure; the fallback would hit the same wall.
		return false, fmt.Errorf("erpnext: sync close: %w", err)
	}

	// Installation without the custom fields: retry with universal fields only.
	minimal := map[string]any{
		"status":      "Closed",
		"description": desc,
	}
	status, err = c.doJSON(ctx, http.MethodPut, path, minimal, nil)
	if err != nil {
		return false, fmt.Errorf("erpnext: sync close fallback: %w", err)
	}
	if status >= http.StatusBadRequest {
		return false, fmt.Errorf("erpnext: sync close fallback: status %d", status)
	}
	return true, nil
}

// postIssue posts an issue document and returns its external name.
func (c *Client) postIssue(ctx context.Context, payload map[string]any) (string, error) {
	var out struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	status, err := c.doJSON(ctx, http.MethodPost, c.issuePath(), payload, &out)
	if err != nil {
		return "", err
	}
	if status >= http.StatusBadRequest {
		return "", fmt.Errorf("status %d", status)
	}
	return out.Data.Name, nil
}

func (c *Client) issuePath() string {
	return "/api/resource/" + c.cfg.IssueDoctype
}

// doJSON performs an authenticated JSON request and decodes the body into out
// (when non-nil and the response is successful). The HTTP status is returned
// so SyncClose can distinguish a rejection from a transport failure; a status
// of 0 with a non-nil error means the request never completed.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.cfg.APIKey, c.cfg.APISecret))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// closeDescription rebuilds the issue description from all supplied closure
// fields; it is included in both the full and the fallback patch.
func closeDescription(req domain.CloseSyncRequest) string {
	lines := []string{
		"Close sync",
		"Helpdesk ticket: " + req.ZammadTicketNumber,
		"Status: " + req.Status,
	}
	if req.Owner != nil && *req.Owner != "" {
		lines = append(lines, "Owner: "+*req.Owner)
	}
	if req.ApprovedPrice != nil {
		lines = append(lines, fmt.Sprintf("Approved price: %v", *req.ApprovedPrice))
	}
	if req.RepairCost != nil {
		lines = append(lines, fmt.Sprintf("Repair cost: %v", *req.RepairCost))
	}
	if req.NetProfit != nil {
		lines = append(lines, fmt.Sprintf("Net profit: %v", *req.NetProfit))
	}
	if req.WarrantyDays != nil {
		lines = append(lines, fmt.Sprintf("Warranty days: %d", *req.WarrantyDays))
	}
	if req.Note != nil && *req.Note != "" {
		lines = append(lines, "Note: "+*req.Note)
	}
	return strings.Join(lines, "\n")
}

// Package zammad implements the helpdesk gateway. It resolves (or creates) a
// customer identity in the helpdesk system, creates intake tickets under that
// identity, and patches tickets with the ERP cross-reference.
//
// Customer resolution is keyed by a deterministic synthetic email derived from
// the requester's chat id (or phone digits, or a name hash as a last resort).
// The email is the stable external key: repeated intakes from the same
// requester resolve to the same helpdesk customer regardless of how the
// display name mutates over time.
package zammad

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"golang.org/x/text/unicode/norm"

	"github.com/pixelsc/integration-service/internal/config"
	"github.com/pixelsc/integration-service/internal/domain"
)

// TicketRef identifies a created helpdesk ticket: the system-internal numeric
// id and the human-facing ticket number used as the public correlation key.
type TicketRef struct {
	TicketID     int64
	TicketNumber string
}

// Client is the helpdesk gateway. Safe for concurrent use.
type Client struct {
	cfg  config.ZammadConfig
	http *http.Client
}

// New constructs a Client with a bounded-timeout HTTP client.
func New(cfg config.ZammadConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether the gateway has credentials to operate.
func (c *Client) Configured() bool { return c.cfg.Token != "" }

// CreateTicket resolves the customer identity for the request and creates an
// intake ticket under it. It fails fast when the gateway is unconfigured.
func (c *Client) CreateTicket(ctx context.Context, req domain.IntakeRequest) (TicketRef, error) {
	if !c.Configured() {
		return TicketRef{}, fmt.Errorf("zammad: token is not configured")
	}

	customerID := c.resolveCustomer(ctx, req)

	payload := map[string]any{
		"title":       fmt.Sprintf("[Intake] %s - %s", req.Device, req.CustomerName),
		"group":       c.cfg.Group,
		"customer_id": customerID,
		"priority_id": c.cfg.PriorityID,
		"state":       c.cfg.State,
		"article": map[string]any{
			"subject":  "Service intake",
			"body":     intakeDescription(req),
			"type":     "note",
			"internal": false,
		},
	}
	if c.cfg.ChannelField != "" {
		payload[c.cfg.ChannelField] = c.cfg.ChannelValue
	}

	var ticket struct {
		ID     int64 `json:"id"`
		Number any   `json:"number"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/tickets", payload, &ticket); err != nil {
		return TicketRef{}, fmt.Errorf("zammad: create ticket: %w", err)
	}
	return TicketRef{TicketID: ticket.ID, TicketNumber: asTicketNumber(ticket.Number)}, nil
}

// SetTicketERPIssue patches the configured custom field on a ticket with the
// ERP issue reference. The error is surfaced to the caller; the orchestrator
// decides that a failed cross-link must not fail the intake.
func (c *Client) SetTicketERPIssue(ctx context.Context, ticketID int64, issueRef string) error {
	if !c.Configured() {
		return fmt.Errorf("zammad: token is not configured")
	}
	if c.cfg.ERPIssueField == "" {
		return nil
	}
	payload := map[string]any{c.cfg.ERPIssueField: issueRef}
	path := fmt.Sprintf("/api/v1/tickets/%d", ticketID)
	if err := c.doJSON(ctx, http.MethodPut, path, payload, nil); err != nil {
		return fmt.Errorf("zammad: set erp issue on ticket %d: %w", ticketID, err)
	}
	return nil
}

//
// Customer resolution
//

// user is the subset of the helpdesk user object this gateway touches.
type user struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
}

// resolveCustomer returns the helpdesk customer id for the requester. It
// never fails: any unresolvable state falls back to the configured default
// identity so that ticket creation is never blocked.
func (c *Client) resolveCustomer(ctx context.Context, req domain.IntakeRequest) int64 {
	email := c.syntheticEmail(req)

	if u, ok := c.searchUserByEmail(ctx, email); ok {
		c.updateUserContact(ctx, u.ID, req)
		return u.ID
	}

	id, err := c.createUser(ctx, email, req)
	if err == nil {
		return id
	}
	log.Warn().Err(err).Str("email", email).Msg("zammad: customer create failed, re-searching")

	// A concurrent intake may have created the identity between our search
	// and create. One re-search covers that race before giving up.
	if u, ok := c.searchUserByEmail(ctx, email); ok {
		return u.ID
	}
	log.Warn().Str("email", email).Int("fallback_customer_id", c.cfg.DefaultCustomerID).
		Msg("zammad: customer resolution failed, using default identity")
	return int64(c.cfg.DefaultCustomerID)
}

var nonDigitRE = regexp.MustCompile(`\D+`)

// syntheticEmail derives the deterministic customer key for a requester:
// chat id first, phone digits second, a hash of the normalized name last.
func (c *Client) syntheticEmail(req domain.IntakeRequest) string {
	if req.TGUserID > 0 {
		return fmt.Sprintf("tg%d@%s", req.TGUserID, c.cfg.SynthEmailDomain)
	}
	if digits := nonDigitRE.ReplaceAllString(req.Phone, ""); digits != "" {
		return fmt.Sprintf("p%s@%s", digits, c.cfg.SynthEmailDomain)
	}
	folded := norm.NFKC.String(strings.ToLower(strings.TrimSpace(req.CustomerName)))
	sum := sha256.Sum256([]byte(folded))
	return fmt.Sprintf("u%x@%s", sum[:6], c.cfg.SynthEmailDomain)
}

// searchUserByEmail looks up a user by exact email match.
func (c *Client) searchUserByEmail(ctx context.Context, email string) (user, bool) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("email:%q", email))
	q.Set("limit", "1")

	var found []user
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/search?"+q.Encode(), nil, &found)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("zammad: user search failed")
		return user{}, false
	}
	if len(found) == 0 || found[0].ID == 0 {
		return user{}, false
	}
	return found[0], true
}

// createUser registers a new customer identity under the synthetic email.
func (c *Client) createUser(ctx context.Context, email string, req domain.IntakeRequest) (int64, error) {
	first, last := splitName(req.CustomerName)
	payload := map[string]any{
		"firstname": first,
		"lastname":  last,
		"email":     email,
		"phone":     req.Phone,
		"roles":     []string{"Customer"},
	}
	if req.TGUsername != nil && *req.TGUsername != "" {
		payload["note"] = "@" + *req.TGUsername
	}
	var u user
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/users", payload, &u); err != nil {
		return 0, err
	}
	if u.ID == 0 {
		return 0, fmt.Errorf("create user: empty id in response")
	}
	return u.ID, nil
}

// updateUserContact refreshes mutable contact fields on an existing identity.
// Best-effort: a stale phone number is not worth blocking the intake.
func (c *Client) updateUserContact(ctx context.Context, id int64, req domain.IntakeRequest) {
	first, last := splitName(req.CustomerName)
	payload := map[string]any{
		"firstname": first,
		"lastname":  last,
		"phone":     req.Phone,
	}
	path := fmt.Sprintf("/api/v1/users/%d", id)
	if err := c.doJSON(ctx, http.MethodPut, path, payload, nil); err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("zammad: contact update failed")
	}
}

//
// Helpers
//

// doJSON performs an authenticated JSON request against the helpdesk API and
// decodes the response into out (when non-nil). Statuses >= 400 are errors.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token token="+c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// intakeDescription renders the structured ticket body for an intake.
func intakeDescription(req domain.IntakeRequest) string {
	lines := []string{
		"New service intake",
		"",
		"Customer: " + req.CustomerName,
		"Phone: " + req.Phone,
		"Device: " + req.Device,
	}
	if req.DeviceType != nil && *req.DeviceType != "" {
		lines = append(lines, "Device type: "+*req.DeviceType)
	}
	if req.Model != nil && *req.Model != "" {
		lines = append(lines, "Model: "+*req.Model)
	}
	lines = append(lines,
		"Problem: "+req.Problem,
		"Service point: "+req.ServicePoint,
		fmt.Sprintf("Requester id: %d", req.TGUserID),
	)
	handle := "-"
	if req.TGUsername != nil && *req.TGUsername != "" {
		handle = "@" + *req.TGUsername
	}
	lines = append(lines, "Requester handle: "+handle)
	return strings.Join(lines, "\n")
}

// splitName divides a display name into first/last on the first space.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// asTicketNumber normalizes the ticket number field, which some installations
// return as a JSON number rather than a string.
func asTicketNumber(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return fmt.Sprintf("%.0f", n)
	case json.Number:
		return n.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", n)
	}
}

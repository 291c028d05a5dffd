// Package domain – ephemeral intake and reconciliation types.
//
// These types carry request data through the orchestration layer. They are
// never persisted directly; the canonical JSON encoding produced by
// CanonicalJSON is what lands in the intake ledger.
package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// IntakeRequest is a caller-supplied service-order intake event.
//
// The requester identity (TGUserID / TGUsername) comes from the chat front
// end and drives customer resolution in the helpdesk gateway.
type IntakeRequest struct {
	CustomerName string  `json:"customer_name" binding:"required,min=1,max=120"`
	Phone        string  `json:"phone"         binding:"required,min=1,max=40"`
	Device       string  `json:"device"        binding:"required,min=1,max=200"`
	DeviceType   *string `json:"device_type"   binding:"omitempty,max=40"`
	Model        *string `json:"model"         binding:"omitempty,max=120"`
	Problem      string  `json:"problem"       binding:"required,min=1,max=3000"`
	ServicePoint string  `json:"service_point" binding:"required,min=1,max=255"`
	TGUserID     int64   `json:"tg_user_id"    binding:"required"`
	TGUsername   *string `json:"tg_username"   binding:"omitempty,max=64"`
}

// IntakeResult is the orchestration outcome returned to the caller and
// recorded verbatim in the ledger so replays can serve it back byte-stable.
type IntakeResult struct {
	Success            bool    `json:"success"`
	IdempotencyKey     *string `json:"idempotency_key"`
	ZammadTicketID     int64   `json:"zammad_ticket_id"`
	ZammadTicketNumber string  `json:"zammad_ticket_number"`
	ERPNextIssue       *string `json:"erpnext_issue"`
	Replayed           bool    `json:"replayed"`
}

// CloseSyncRequest carries a ticket-closure event keyed by the human-facing
// helpdesk ticket number. ERPIssueRef is a fast path; when absent the linked
// issue is resolved through the ledger's reverse index.
type CloseSyncRequest struct {
	ZammadTicketNumber string   `json:"zammad_ticket_number" binding:"required,min=1,max=64"`
	ERPIssueRef        *string  `json:"erp_issue_ref"        binding:"omitempty,max=140"`
	Status             string   `json:"status"               binding:"required,min=1,max=80"`
	Owner              *string  `json:"owner"                binding:"omitempty,max=140"`
	ApprovedPrice      *float64 `json:"approved_price"`
	RepairCost         *float64 `json:"repair_cost"`
	WarrantyDays       *int     `json:"warranty_days"`
	NetProfit          *float64 `json:"net_profit"`
	Note               *string  `json:"note"                 binding:"omitempty,max=4000"`
}

// CloseSyncResult reports whether the linked ERP issue was patched.
type CloseSyncResult struct {
	Success            bool    `json:"success"`
	ZammadTicketNumber string  `json:"zammad_ticket_number"`
	ERPNextIssue       *string `json:"erpnext_issue"`
	Updated            bool    `json:"updated"`
}

// CreateSyncRequest asks for an ERP issue to be created for an already
// existing helpdesk ticket (late linking, e.g. after enabling the ERP
// integration). ERPIssueRef short-circuits when the link already exists.
type CreateSyncRequest struct {
	ZammadTicketID     int64   `json:"zammad_ticket_id"     binding:"required"`
	ZammadTicketNumber string  `json:"zammad_ticket_number" binding:"required,min=1,max=64"`
	ERPIssueRef        *string `json:"erp_issue_ref"        binding:"omitempty,max=140"`
	CustomerName       *string `json:"customer_name"        binding:"omitempty,max=120"`
	Device             *string `json:"device"               binding:"omitempty,max=200"`
	Problem            *string `json:"problem"              binding:"omitempty,max=3000"`
}

// CreateSyncResult reports whether a new ERP issue was created and linked.
type CreateSyncResult struct {
	Success            bool    `json:"success"`
	ZammadTicketID     int64   `json:"zammad_ticket_id"`
	ZammadTicketNumber string  `json:"zammad_ticket_number"`
	ERPNextIssue       *string `json:"erpnext_issue"`
	Created            bool    `json:"created"`
}

// CanonicalJSON encodes v deterministically: object keys sorted, no HTML
// escaping, no insignificant whitespace. Two semantically equal payloads
// always produce identical bytes, which makes the fingerprint stable.
func CanonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	// Round-trip through any: encoding/json sorts map keys on output.
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Fingerprint returns the hex SHA-256 digest of the canonical JSON encoding
// of v. A reused idempotency key must carry the same fingerprint; anything
// else is key misuse and is rejected upstream.
func Fingerprint(v any) (string, error) {
	canon, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:]), nil
}

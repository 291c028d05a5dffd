// Package domain defines the core persistence model for the intake ledger and
// the ephemeral request/result types exchanged between the HTTP layer, the
// orchestration services, and the external gateways.
package domain

import "time"

// Intake record statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// IntakeRecord is the durable ledger entry for a processed intake request,
// keyed by the caller-supplied idempotency key. It enables safe retries:
// a replay with the same key and payload returns the recorded response
// without re-invoking the external gateways.
//
// Fields:
//   - ID: autoincrement primary key.
//   - IdempotencyKey: caller-supplied key; NULL for untracked requests.
//     Unique when present, so at most one row exists per key.
//   - RequestHash: SHA-256 fingerprint of the canonical request body, used to
//     detect key reuse with a different payload.
//   - RequestBody: canonical JSON of the original request (audit).
//   - ResponseBody: serialized response on success; NULL on error rows.
//   - Status: "success" or "error".
//   - ErrorText: gateway failure detail on error rows.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type IntakeRecord struct {
	ID             uint       `json:"id"              gorm:"primaryKey;autoIncrement"`
	IdempotencyKey *string    `json:"idempotency_key" gorm:"type:TEXT;uniqueIndex:ux_intake_idem_key"`
	RequestHash    string     `json:"request_hash"    gorm:"type:TEXT;not null"`
	RequestBody    string     `json:"request_body"    gorm:"type:TEXT;not null"`
	ResponseBody   *string    `json:"response_body"   gorm:"type:TEXT"`
	Status         string     `json:"status"          gorm:"type:TEXT;not null;check:status IN ('success','error')"`
	ErrorText      *string    `json:"error_text"      gorm:"type:TEXT"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IntakeRecord.
func (IntakeRecord) TableName() string { return "intake_requests" }

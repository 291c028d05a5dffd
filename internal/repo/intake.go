// Package repo implements the persistence layer for the intake ledger.
// This file provides the dedupe-store operations: lookup by idempotency key,
// upserting success/error outcomes, and the reverse index from helpdesk
// ticket numbers to ERP issue references.
package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pixelsc/integration-service/internal/domain"
)

// ErrNotFound indicates that no ledger record exists for the given key.
var ErrNotFound = errors.New("record not found")

// FindIntakeByKey returns the ledger record for an idempotency key, or
// ErrNotFound. Absence is the normal first-request case, not a failure.
func FindIntakeByKey(ctx context.Context, db *gorm.DB, key string) (*domain.IntakeRecord, error) {
	var rec domain.IntakeRecord
	err := db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveIntakeSuccess records a successful intake outcome.
//
// With a key, the write is an atomic insert-or-update on the key's unique
// index: an existing row (including a prior error row) is overwritten with
// the new fingerprint and response, and the error text is cleared. Without a
// key a fresh untracked row is appended every time; keyless requests are
// never deduplicated.
func SaveIntakeSuccess(ctx context.Context, db *gorm.DB, key *string, hash, requestBody, responseBody string) error {
	rec := domain.IntakeRecord{
		IdempotencyKey: key,
		RequestHash:    hash,
		RequestBody:    requestBody,
		ResponseBody:   &responseBody,
		Status:         domain.StatusSuccess,
		ErrorText:      nil,
	}
	if key == nil {
		return db.WithContext(ctx).Create(&rec).Error
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "idempotency_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"request_hash":  hash,
			"request_body":  requestBody,
			"response_body": responseBody,
			"status":        domain.StatusSuccess,
			"error_text":    nil,
		}),
	}).Create(&rec).Error
}

// SaveIntakeError records a failed intake outcome with the same upsert
// semantics as SaveIntakeSuccess; the stored response is cleared so a later
// retry is never short-circuited by a cached failure.
func SaveIntakeError(ctx context.Context, db *gorm.DB, key *string, hash, requestBody, errorText string) error {
	rec := domain.IntakeRecord{
		IdempotencyKey: key,
		RequestHash:    hash,
		RequestBody:    requestBody,
		ResponseBody:   nil,
		Status:         domain.StatusError,
		ErrorText:      &errorText,
	}
	if key == nil {
		return db.WithContext(ctx).Create(&rec).Error
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "idempotency_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"request_hash":  hash,
			"request_body":  requestBody,
			"response_body": nil,
			"status":        domain.StatusError,
			"error_text":    errorText,
		}),
	}).Create(&rec).Error
}

// FindERPIssueByTicketNumber resolves the ERP issue reference linked to a
// helpdesk ticket number, or "" when no link is recorded.
//
// The link lives only inside stored success responses, so candidate rows are
// pre-filtered with a JSON substring probe and then confirmed by decoding.
// The newest matching row wins.
func FindERPIssueByTicketNumber(ctx context.Context, db *gorm.DB, ticketNumber string) (string, error) {
	if ticketNumber == "" {
		return "", nil
	}
	probe, err := json.Marshal(ticketNumber)
	if err != nil {
		return "", err
	}

	var rows []domain.IntakeRecord
	err = db.WithContext(ctx).
		Where("status = ? AND response_body IS NOT NULL", domain.StatusSuccess).
		Where("response_body LIKE ?", "%"+string(probe)+"%").
		Order("id DESC").
		Limit(20).
		Find(&rows).Error
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		if row.ResponseBody == nil {
			continue
		}
		var res domain.IntakeResult
		if err := json.Unmarshal([]byte(*row.ResponseBody), &res); err != nil {
			continue
		}
		if res.ZammadTicketNumber != ticketNumber || res.ERPNextIssue == nil || *res.ERPNextIssue == "" {
			continue
		}
		return *res.ERPNextIssue, nil
	}
	return "", nil
}

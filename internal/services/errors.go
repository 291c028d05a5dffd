// Package services implements the intake orchestration and close-sync
// reconciliation logic. This file centralizes common service-level error
// values so they can be consistently returned by service methods and mapped
// to HTTP results at the handler layer.
package services

import "errors"

var (
	// ErrIdempotencyConflict is returned when an idempotency key is reused
	// with a payload whose fingerprint differs from the recorded one. The key
	// is a promise of an identical payload; reuse for a different logical
	// request signals a caller bug and nothing is persisted.
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different payload")

	// ErrGateway wraps failures of an external system (helpdesk or ERP) that
	// abort the operation. Handlers translate it to 502 Bad Gateway.
	ErrGateway = errors.New("gateway failure")
)

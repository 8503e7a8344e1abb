package domain

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditCreated   AuditAction = "created"
	AuditProcessed AuditAction = "processed"
	AuditCancelled AuditAction = "cancelled"
)

// AuditEntry is one append-only line in amortization_logs. Details carries
// the full calculation or commit payload for later reconciliation.
type AuditEntry struct {
	ID             int64
	AmortizationID string
	Actor          int64
	Action         AuditAction
	Details        json.RawMessage
	CreatedAt      time.Time
}

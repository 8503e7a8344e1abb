package service

import (
	"context"
	"log"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

// AuditLogger appends to amortization_logs best-effort: a failed append is
// logged for operational follow-up but never fails the operation it
// documents.
type AuditLogger struct {
	sink domain.AuditLog
}

func NewAuditLogger(sink domain.AuditLog) *AuditLogger {
	return &AuditLogger{sink: sink}
}

func (l *AuditLogger) Record(ctx context.Context, e domain.AuditEntry) {
	if l == nil || l.sink == nil {
		return
	}
	if err := l.sink.Append(ctx, e); err != nil {
		log.Printf("[AUDIT] append failed amortization=%s action=%s: %v", e.AmortizationID, e.Action, err)
	}
}

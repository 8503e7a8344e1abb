package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type AuditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, e domain.AuditEntry) error {
	query := `
		INSERT INTO amortization_logs (amortization_id, actor, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		e.AmortizationID,
		e.Actor,
		e.Action,
		[]byte(e.Details),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("append audit log %s/%s: %w", e.AmortizationID, e.Action, err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type AmortizationRepository struct {
	db DBTX
}

func NewAmortizationRepository(db DBTX) *AmortizationRepository {
	return &AmortizationRepository{db: db}
}

func (r *AmortizationRepository) FindAmortizationByCode(ctx context.Context, paymentCode string) (*domain.Amortization, error) {
	query := `
		SELECT id, client_id, user_id, payment_amount, discount_applied, total_credit,
		       status, payment_code, created_at, processed_at, processed_by
		FROM payment_amortizations
		WHERE payment_code = $1
	`

	var a domain.Amortization
	err := r.db.QueryRowContext(ctx, query, paymentCode).Scan(
		&a.ID,
		&a.ClientID,
		&a.UserID,
		&a.PaymentAmount,
		&a.DiscountApplied,
		&a.TotalCredit,
		&a.Status,
		&a.PaymentCode,
		&a.CreatedAt,
		&a.ProcessedAt,
		&a.ProcessedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find amortization by code: %w", err)
	}

	return &a, nil
}

func (r *AmortizationRepository) PaymentCodeExists(ctx context.Context, paymentCode string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payment_amortizations WHERE payment_code = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, paymentCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("payment code lookup: %w", err)
	}
	return exists, nil
}

func (r *AmortizationRepository) InsertAmortization(ctx context.Context, a *domain.Amortization) error {
	query := `
		INSERT INTO payment_amortizations
			(id, client_id, user_id, payment_amount, discount_applied, total_credit, status, payment_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ClientID,
		a.UserID,
		a.PaymentAmount,
		a.DiscountApplied,
		a.TotalCredit,
		a.Status,
		a.PaymentCode,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert amortization %s: %w", a.PaymentCode, err)
	}
	return nil
}

// MarkProcessing is the conditional update guarding against double commits:
// only the caller that flips pending to processing may allocate credit.
func (r *AmortizationRepository) MarkProcessing(ctx context.Context, amortizationID string) (bool, error) {
	query := `
		UPDATE payment_amortizations
		SET status = 'processing'
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.db.ExecContext(ctx, query, amortizationID)
	if err != nil {
		return false, fmt.Errorf("mark processing %s: %w", amortizationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *AmortizationRepository) MarkCompleted(ctx context.Context, amortizationID string, processedBy int64, processedAt time.Time) error {
	query := `
		UPDATE payment_amortizations
		SET status = 'completed', processed_at = $2, processed_by = $3
		WHERE id = $1 AND status = 'processing'
	`

	res, err := r.db.ExecContext(ctx, query, amortizationID, processedAt, processedBy)
	if err != nil {
		return fmt.Errorf("mark completed %s: %w", amortizationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("mark completed %s: request is not processing", amortizationID)
	}
	return nil
}

func (r *AmortizationRepository) CancelPending(ctx context.Context, amortizationID string) (bool, error) {
	query := `
		UPDATE payment_amortizations
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.db.ExecContext(ctx, query, amortizationID)
	if err != nil {
		return false, fmt.Errorf("cancel amortization %s: %w", amortizationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type BillingRepository struct {
	db DBTX
}

func NewBillingRepository(db DBTX) *BillingRepository {
	return &BillingRepository{db: db}
}

// ListOpenBillings returns pending/overdue billings oldest-due-date first.
// The id tie-break keeps the allocation order deterministic for billings
// sharing a due date.
func (r *BillingRepository) ListOpenBillings(ctx context.Context, clientID string) ([]domain.Billing, error) {
	query := `
		SELECT id, client_id, description, due_date, amount, amortized_amount, status, payment_date
		FROM billings
		WHERE client_id = $1
		  AND status IN ('pending', 'overdue')
		ORDER BY due_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list open billings for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var result []domain.Billing
	for rows.Next() {
		var b domain.Billing
		if err := rows.Scan(
			&b.ID,
			&b.ClientID,
			&b.Description,
			&b.DueDate,
			&b.Amount,
			&b.AmortizedAmount,
			&b.Status,
			&b.PaymentDate,
		); err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyToBilling writes the new cumulative amortized amount and, when the
// billing is settled, flips it to paid with the payment date.
func (r *BillingRepository) ApplyToBilling(ctx context.Context, billingID string, amortized decimal.Decimal, paid bool, paymentDate *time.Time) error {
	var (
		res sql.Result
		err error
	)

	if paid {
		query := `
			UPDATE billings
			SET amortized_amount = $2, status = 'paid', payment_date = $3
			WHERE id = $1
		`
		res, err = r.db.ExecContext(ctx, query, billingID, amortized, paymentDate)
	} else {
		query := `
			UPDATE billings
			SET amortized_amount = $2
			WHERE id = $1
		`
		res, err = r.db.ExecContext(ctx, query, billingID, amortized)
	}
	if err != nil {
		return fmt.Errorf("apply to billing %s: %w", billingID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("apply to billing %s: expected 1 row, got %d", billingID, n)
	}
	return nil
}

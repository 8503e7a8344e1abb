package repository

import (
	"context"
	"fmt"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type ApplicationRepository struct {
	db DBTX
}

func NewApplicationRepository(db DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// InsertApplications appends the allocation lines of one commit. The table
// is append-only; rows are never updated or deleted.
func (r *ApplicationRepository) InsertApplications(ctx context.Context, apps []domain.AllocationApplication) error {
	query := `
		INSERT INTO amortization_applications
			(id, amortization_id, billing_id, amount_applied, billing_remaining, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, app := range apps {
		_, err := r.db.ExecContext(ctx, query,
			app.ID,
			app.AmortizationID,
			app.BillingID,
			app.AmountApplied,
			app.BillingRemaining,
			app.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert application for billing %s: %w", app.BillingID, err)
		}
	}
	return nil
}

func (r *ApplicationRepository) ListApplications(ctx context.Context, amortizationID string) ([]domain.AllocationApplication, error) {
	query := `
		SELECT a.id, a.amortization_id, a.billing_id, COALESCE(b.description, ''),
		       a.amount_applied, a.billing_remaining, a.created_at
		FROM amortization_applications a
		LEFT JOIN billings b ON b.id = a.billing_id
		WHERE a.amortization_id = $1
		ORDER BY a.created_at ASC, a.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, amortizationID)
	if err != nil {
		return nil, fmt.Errorf("list applications for %s: %w", amortizationID, err)
	}
	defer rows.Close()

	var result []domain.AllocationApplication
	for rows.Next() {
		var app domain.AllocationApplication
		if err := rows.Scan(
			&app.ID,
			&app.AmortizationID,
			&app.BillingID,
			&app.BillingDescription,
			&app.AmountApplied,
			&app.BillingRemaining,
			&app.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

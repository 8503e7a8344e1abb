package repository

import (
	"context"
	"fmt"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type ClientCreditRepository struct {
	db DBTX
}

func NewClientCreditRepository(db DBTX) *ClientCreditRepository {
	return &ClientCreditRepository{db: db}
}

func (r *ClientCreditRepository) InsertClientCredit(ctx context.Context, c *domain.ClientCredit) error {
	query := `
		INSERT INTO client_credits
			(id, client_id, user_id, amount, used_amount, source, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.ClientID,
		c.UserID,
		c.Amount,
		c.UsedAmount,
		c.Source,
		c.Status,
		c.CreatedAt,
		c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert client credit for %s: %w", c.ClientID, err)
	}
	return nil
}

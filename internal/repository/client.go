package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type ClientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) FindClient(ctx context.Context, clientID string) (*domain.Client, error) {
	query := `
		SELECT id, user_id, name, phone, created_at
		FROM clients
		WHERE id = $1
	`

	var c domain.Client
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Phone,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find client %s: %w", clientID, err)
	}

	return &c, nil
}

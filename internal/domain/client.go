package domain

import "time"

// Client is owned by the operator (user) that registered it. Ownership is
// re-checked on every amortization operation.
type Client struct {
	ID        string
	UserID    int64
	Name      string
	Phone     *string
	CreatedAt *time.Time
}

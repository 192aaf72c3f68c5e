package domain

import "time"

// Bank and AccountHolder are the directory records the core reads during
// account creation. Their management lives outside the ledger engine.

type Bank struct {
	ID        int64
	Code      string
	Name      string
	Currency  Currency
	CreatedAt time.Time
}

type AccountHolder struct {
	ID         int64
	CustomerID string
	Name       string
	Email      string
	CreatedAt  time.Time
}

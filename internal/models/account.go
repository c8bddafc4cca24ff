package models

import (
	"time"
)

// Account holds a user's spendable coin balance. The balance is only ever
// written through the ledger service, inside a database transaction, and must
// equal the running sum of the account's transactions at all times.
type Account struct {
	ID        string    `json:"id" db:"id"`
	Balance   int64     `json:"balance" db:"balance"`
	Version   int       `json:"version" db:"version"` // for optimistic locking
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

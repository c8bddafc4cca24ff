package models

import (
	"time"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindInitialBonus     TransactionKind = "INITIAL_BONUS"
	KindUnlockPhoto      TransactionKind = "UNLOCK_PHOTO"
	KindUnlockChat       TransactionKind = "UNLOCK_CHAT"
	KindTopUp            TransactionKind = "TOP_UP"
	KindEarnedFromUnlock TransactionKind = "EARNED_FROM_UNLOCK"
	KindRefund           TransactionKind = "REFUND"
	KindBonus            TransactionKind = "BONUS"
)

// Transaction is an append-only ledger entry. Amount is signed: positive for
// credits, negative for debits. BalanceAfter is the account balance that
// resulted from applying this entry.
type Transaction struct {
	ID           string          `json:"id" db:"id"`
	AccountID    string          `json:"account_id" db:"account_id"`
	Amount       int64           `json:"amount" db:"amount"`
	Kind         TransactionKind `json:"kind" db:"kind"`
	ReferenceID  *string         `json:"reference_id,omitempty" db:"reference_id"`
	BalanceAfter int64           `json:"balance_after" db:"balance_after"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

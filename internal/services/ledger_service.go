package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/confessly/backend/internal/audit"
	"github.com/confessly/backend/internal/models"
	"github.com/google/uuid"
)

// LedgerService owns the only sanctioned write path to account balances.
// Every mutation appends a transactions row carrying the resulting balance,
// inside the caller's database transaction, so balance == sum(transactions)
// can never be observed broken.
type LedgerService struct {
	db    *sql.DB
	audit *audit.Logger
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{
		db:    db,
		audit: audit.NewLogger(),
	}
}

// ApplyEntryTx applies one signed ledger entry to an account inside tx. The
// account row is locked for the remainder of tx, which serializes concurrent
// mutations of the same balance. A resulting balance below zero fails with
// InsufficientFundsError and leaves tx untouched. Zero amounts are legal and
// still append an entry.
func (s *LedgerService) ApplyEntryTx(tx *sql.Tx, accountID string, amount int64, kind models.TransactionKind, referenceID *string) (int64, error) {
	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if account.Balance+amount < 0 {
		return 0, &InsufficientFundsError{Needed: -amount, Available: account.Balance}
	}

	newBalance := account.Balance + amount

	if err := s.appendTransaction(tx, accountID, amount, kind, referenceID, newBalance); err != nil {
		return 0, err
	}

	if err := s.updateAccountBalance(tx, accountID, newBalance, account.Version); err != nil {
		return 0, err
	}

	s.audit.LogEntry(accountID, amount, string(kind), newBalance)
	return newBalance, nil
}

// ApplyEntry wraps a single entry in its own database transaction. Used by
// callers with no other writes to bundle, like the top-up engine.
func (s *LedgerService) ApplyEntry(accountID string, amount int64, kind models.TransactionKind, referenceID *string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	newBalance, err := s.ApplyEntryTx(tx, accountID, amount, kind, referenceID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[LEDGER] Commit failed for account %s: %v", accountID, err)
		return 0, err
	}
	return newBalance, nil
}

// GetBalance reads the current balance without locking.
func (s *LedgerService) GetBalance(accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return balance, err
}

// ListTransactions returns an account's ledger history, newest first.
func (s *LedgerService) ListTransactions(accountID string, page, limit int) ([]models.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT id, account_id, amount, kind, reference_id, balance_after, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Kind, &t.ReferenceID, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, t)
	}
	return transactions, total, rows.Err()
}

func (s *LedgerService) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, balance, version, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.Balance, &account.Version, &account.UpdatedAt)

	return &account, err
}

func (s *LedgerService) appendTransaction(tx *sql.Tx, accountID string, amount int64, kind models.TransactionKind, referenceID *string, balanceAfter int64) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (id, account_id, amount, kind, reference_id, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), accountID, amount, string(kind), referenceID, balanceAfter, time.Now())
	return err
}

func (s *LedgerService) updateAccountBalance(tx *sql.Tx, accountID string, newBalance int64, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now(), accountID, version)

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("optimistic lock failed for account %s", accountID)
	}

	return nil
}

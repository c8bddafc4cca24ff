package services

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound covers a missing payer, target, or coin package.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTarget means the unlock type was neither PHOTO nor CHAT.
	ErrInvalidTarget = errors.New("invalid target type")

	// ErrGatewayDeclined is the deterministic mock-gateway failure for
	// large top-up packages. No ledger mutation happens when it fires.
	ErrGatewayDeclined = errors.New("payment gateway declined the transaction")
)

// InsufficientFundsError reports a failed sufficiency check. Needed and
// Available are surfaced so the client can route the user to a top-up flow
// instead of a dead-end error.
type InsufficientFundsError struct {
	Needed    int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient coins: need %d, have %d", e.Needed, e.Available)
}

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// failure. The unlock registry's (user_id, target_id, target_type) constraint
// surfaces concurrent duplicate purchases this way.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

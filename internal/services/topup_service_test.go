package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func newTopUpFixture(t *testing.T) (*TopUpService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	service := NewTopUpService(db, NewLedgerService(db))
	service.declineThreshold = 500
	service.gatewayDelay = func() time.Duration { return 0 }
	return service, mock, func() { db.Close() }
}

func TestTopUpService_TopUp(t *testing.T) {
	t.Run("value pack credits exactly its coins", func(t *testing.T) {
		service, mock, cleanup := newTopUpFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).
			WithArgs("user-1").
			WillReturnRows(accountRows("user-1", 50, 2))
		mock.ExpectExec(insertTxSQL).
			WithArgs(sqlmock.AnyArg(), "user-1", int64(300), "TOP_UP", nil, int64(350), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(updateBalanceSQL).
			WithArgs(int64(350), sqlmock.AnyArg(), "user-1", 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		outcome, err := service.TopUp("user-1", "value")
		assert.NoError(t, err)
		assert.Equal(t, int64(300), outcome.CoinsAdded)
		assert.Equal(t, int64(350), outcome.NewBalance)
		assert.Equal(t, "value", outcome.PackageID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("whale pack is declined with zero database activity", func(t *testing.T) {
		service, mock, cleanup := newTopUpFixture(t)
		defer cleanup()

		_, err := service.TopUp("user-1", "whale")
		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown package", func(t *testing.T) {
		service, mock, cleanup := newTopUpFixture(t)
		defer cleanup()

		_, err := service.TopUp("user-1", "mega")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decline threshold is configurable", func(t *testing.T) {
		service, mock, cleanup := newTopUpFixture(t)
		defer cleanup()

		service.declineThreshold = 100

		_, err := service.TopUp("user-1", "popular")
		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ledger failure surfaces to the caller", func(t *testing.T) {
		service, mock, cleanup := newTopUpFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.TopUp("ghost", "starter")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTopUpService_GatewayDelay(t *testing.T) {
	service, _, cleanup := newTopUpFixture(t)
	defer cleanup()

	// The simulated latency window from configuration.
	delay := NewTopUpService(service.db, service.ledger).gatewayDelay()
	assert.GreaterOrEqual(t, delay, 1500*time.Millisecond)
	assert.Less(t, delay, 2000*time.Millisecond)
}

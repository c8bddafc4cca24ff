package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/confessly/backend/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var (
	pricingSQL      = regexp.QuoteMeta(`SELECT author_id, unlock_price, chat_price FROM confessions WHERE id = $1 AND is_active = true`)
	findUnlockSQL   = regexp.QuoteMeta(`SELECT id, coins_spent FROM unlocks WHERE user_id = $1 AND target_id = $2 AND target_type = $3`)
	insertUnlockSQL = regexp.QuoteMeta(`INSERT INTO unlocks (id, user_id, target_id, target_type, coins_spent, created_at) VALUES ($1, $2, $3, $4, $5, $6)`)
	unlockIDSQL     = regexp.QuoteMeta(`SELECT id FROM unlocks WHERE user_id = $1 AND target_id = $2 AND target_type = $3`)
	unlockExistsSQL = regexp.QuoteMeta(`SELECT EXISTS ( SELECT 1 FROM unlocks WHERE user_id = $1 AND target_id = $2 AND target_type = $3 )`)
	listUnlocksSQL  = regexp.QuoteMeta(`SELECT target_id, target_type FROM unlocks WHERE user_id = $1`)
)

func newUnlockFixture(t *testing.T) (*UnlockService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	service := NewUnlockService(db, NewLedgerService(db), nil, nil)
	service.revenueSharePercent = 50
	return service, mock, func() { db.Close() }
}

func pricingRows(authorID any, unlockPrice, chatPrice int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"author_id", "unlock_price", "chat_price"}).
		AddRow(authorID, unlockPrice, chatPrice)
}

func noUnlockYet(mock sqlmock.Sqlmock, userID, targetID, targetType string) {
	mock.ExpectQuery(findUnlockSQL).
		WithArgs(userID, targetID, targetType).
		WillReturnError(sql.ErrNoRows)
}

func expectLedgerEntry(mock sqlmock.Sqlmock, accountID string, balance int64, version int, amount int64, kind string, ref any, after int64) {
	mock.ExpectQuery(lockAccountSQL).
		WithArgs(accountID).
		WillReturnRows(accountRows(accountID, balance, version))
	mock.ExpectExec(insertTxSQL).
		WithArgs(sqlmock.AnyArg(), accountID, amount, kind, ref, after, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(updateBalanceSQL).
		WithArgs(after, sqlmock.AnyArg(), accountID, version).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestUnlockService_AttemptUnlock(t *testing.T) {
	ctx := context.Background()

	t.Run("photo unlock debits payer and credits author", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		cache := new(MockUnlockCache)
		cache.On("Invalidate", anything, "payer-1").Return()
		service.cache = cache

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 10, 3))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 100, 1, int64(-10), "UNLOCK_PHOTO", "conf-1", int64(90))
		expectLedgerEntry(mock, "author-1", 20, 4, int64(5), "EARNED_FROM_UNLOCK", "conf-1", int64(25))
		mock.ExpectExec(insertUnlockSQL).
			WithArgs(sqlmock.AnyArg(), "payer-1", "conf-1", "PHOTO", int64(10), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		assert.False(t, outcome.AlreadyUnlocked)
		assert.Equal(t, int64(10), outcome.CoinsSpent)
		assert.Equal(t, int64(90), outcome.NewBalance)
		assert.NotEmpty(t, outcome.UnlockID)
		assert.NoError(t, mock.ExpectationsWereMet())
		cache.AssertCalled(t, "Invalidate", anything, "payer-1")
	})

	t.Run("exact balance spends down to zero", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows(nil, 10, 3))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 10, 1, int64(-10), "UNLOCK_PHOTO", "conf-1", int64(0))
		mock.ExpectExec(insertUnlockSQL).
			WithArgs(sqlmock.AnyArg(), "payer-1", "conf-1", "PHOTO", int64(10), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), outcome.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds rejects without mutation", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 10, 5))
		noUnlockYet(mock, "payer-1", "conf-1", "CHAT")
		mock.ExpectQuery(lockAccountSQL).
			WithArgs("payer-1").
			WillReturnRows(accountRows("payer-1", 4, 1))
		mock.ExpectRollback()

		_, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockChat)
		var insufficient *InsufficientFundsError
		assert.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(5), insufficient.Needed)
		assert.Equal(t, int64(4), insufficient.Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat purchase takes the fast path and spends nothing", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 10, 3))
		mock.ExpectQuery(findUnlockSQL).
			WithArgs("payer-1", "conf-1", "PHOTO").
			WillReturnRows(sqlmock.NewRows([]string{"id", "coins_spent"}).AddRow("unlock-1", 10))
		mock.ExpectQuery(getBalanceSQL).
			WithArgs("payer-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(90))
		mock.ExpectRollback()

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		assert.True(t, outcome.AlreadyUnlocked)
		assert.Equal(t, "unlock-1", outcome.UnlockID)
		assert.Equal(t, int64(0), outcome.CoinsSpent)
		assert.Equal(t, int64(90), outcome.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("losing a concurrent race reports already unlocked", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows(nil, 10, 3))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 100, 1, int64(-10), "UNLOCK_PHOTO", "conf-1", int64(90))
		mock.ExpectExec(insertUnlockSQL).
			WillReturnError(&pq.Error{Code: pqUniqueViolation})
		mock.ExpectRollback()

		// The loser's debit is rolled back with the transaction; the winner's
		// unlock and the untouched balance are what the caller sees.
		mock.ExpectQuery(unlockIDSQL).
			WithArgs("payer-1", "conf-1", "PHOTO").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("unlock-winner"))
		mock.ExpectQuery(getBalanceSQL).
			WithArgs("payer-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(90))

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		assert.True(t, outcome.AlreadyUnlocked)
		assert.Equal(t, "unlock-winner", outcome.UnlockID)
		assert.Equal(t, int64(0), outcome.CoinsSpent)
		assert.Equal(t, int64(90), outcome.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure after the debit rolls the whole purchase back", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 10, 3))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 100, 1, int64(-10), "UNLOCK_PHOTO", "conf-1", int64(90))
		mock.ExpectQuery(lockAccountSQL).
			WithArgs("author-1").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("self unlock skips the author credit", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("payer-1", 10, 3))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 50, 1, int64(-10), "UNLOCK_PHOTO", "conf-1", int64(40))
		mock.ExpectExec(insertUnlockSQL).
			WithArgs(sqlmock.AnyArg(), "payer-1", "conf-1", "PHOTO", int64(10), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		assert.Equal(t, int64(40), outcome.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("free content records a zero entry and the unlock", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 0, 3))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 30, 1, int64(0), "UNLOCK_PHOTO", "conf-1", int64(30))
		mock.ExpectExec(insertUnlockSQL).
			WithArgs(sqlmock.AnyArg(), "payer-1", "conf-1", "PHOTO", int64(0), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), outcome.CoinsSpent)
		assert.Equal(t, int64(30), outcome.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown confession", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.AttemptUnlock(ctx, "payer-1", "ghost", models.UnlockPhoto)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid target type never touches the database", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		_, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockType("GIF"))
		assert.ErrorIs(t, err, ErrInvalidTarget)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUnlockService_AttemptUnlock_ChatRoom(t *testing.T) {
	ctx := context.Background()

	expectChatPurchase := func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 10, 4))
		noUnlockYet(mock, "payer-1", "conf-1", "CHAT")
		expectLedgerEntry(mock, "payer-1", 100, 1, int64(-4), "UNLOCK_CHAT", "conf-1", int64(96))
		expectLedgerEntry(mock, "author-1", 0, 1, int64(2), "EARNED_FROM_UNLOCK", "conf-1", int64(2))
		mock.ExpectExec(insertUnlockSQL).
			WithArgs(sqlmock.AnyArg(), "payer-1", "conf-1", "CHAT", int64(4), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
	}

	t.Run("chat unlock provisions the room", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		rooms := new(MockRoomEnsurer)
		rooms.On("EnsureRoom", anything, "payer-1", "author-1", "conf-1").Return("room-1", nil)
		service.SetRoomEnsurer(rooms)

		expectChatPurchase(mock)

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockChat)
		assert.NoError(t, err)
		assert.Empty(t, outcome.Warning)
		assert.Equal(t, int64(4), outcome.CoinsSpent)
		rooms.AssertExpectations(t)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("room failure leaves the purchase standing", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		rooms := new(MockRoomEnsurer)
		rooms.On("EnsureRoom", anything, "payer-1", "author-1", "conf-1").
			Return("", errors.New("rooms unavailable"))
		service.SetRoomEnsurer(rooms)

		expectChatPurchase(mock)

		outcome, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockChat)
		assert.NoError(t, err)
		assert.NotEmpty(t, outcome.Warning)
		assert.Equal(t, int64(96), outcome.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("photo unlock never provisions a room", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		rooms := new(MockRoomEnsurer)
		service.SetRoomEnsurer(rooms)

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs("conf-1").
			WillReturnRows(pricingRows("author-1", 10, 4))
		noUnlockYet(mock, "payer-1", "conf-1", "PHOTO")
		expectLedgerEntry(mock, "payer-1", 100, 1, int64(-10), "UNLOCK_PHOTO", "conf-1", int64(90))
		expectLedgerEntry(mock, "author-1", 0, 1, int64(5), "EARNED_FROM_UNLOCK", "conf-1", int64(5))
		mock.ExpectExec(insertUnlockSQL).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		_, err := service.AttemptUnlock(ctx, "payer-1", "conf-1", models.UnlockPhoto)
		assert.NoError(t, err)
		rooms.AssertNotCalled(t, "EnsureRoom", anything, anything, anything, anything)
	})
}

func TestUnlockService_Registry(t *testing.T) {
	ctx := context.Background()

	t.Run("HasUnlocked", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectQuery(unlockExistsSQL).
			WithArgs("user-1", "conf-1", "CHAT").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		unlocked, err := service.HasUnlocked(ctx, "user-1", "conf-1", models.UnlockChat)
		assert.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("ListUnlocks splits facets", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectQuery(listUnlocksSQL).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"target_id", "target_type"}).
				AddRow("conf-1", "PHOTO").
				AddRow("conf-2", "CHAT").
				AddRow("conf-3", "PHOTO"))

		unlocks, err := service.ListUnlocks(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"conf-1", "conf-3"}, unlocks.PhotoTargetIDs)
		assert.Equal(t, []string{"conf-2"}, unlocks.ChatTargetIDs)
	})

	t.Run("ListUnlocks with no purchases returns empty slices", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectQuery(listUnlocksSQL).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"target_id", "target_type"}))

		unlocks, err := service.ListUnlocks(ctx, "user-1")
		assert.NoError(t, err)
		assert.NotNil(t, unlocks.PhotoTargetIDs)
		assert.NotNil(t, unlocks.ChatTargetIDs)
		assert.Empty(t, unlocks.PhotoTargetIDs)
		assert.Empty(t, unlocks.ChatTargetIDs)
	})
}

func TestUnlockService_HandleAttemptUnlock(t *testing.T) {
	targetID := "6ba7b810-9dad-41d1-80b4-00c04fd430c8"

	request := func(userID string, body string) *http.Request {
		r := httptest.NewRequest("POST", "/unlocks", strings.NewReader(body))
		if userID != "" {
			r = r.WithContext(context.WithValue(r.Context(), "userID", userID))
		}
		return r
	}

	t.Run("insufficient coins returns 402 with amounts", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs(targetID).
			WillReturnRows(pricingRows("author-1", 10, 3))
		noUnlockYet(mock, "payer-1", targetID, "PHOTO")
		mock.ExpectQuery(lockAccountSQL).
			WithArgs("payer-1").
			WillReturnRows(accountRows("payer-1", 4, 1))
		mock.ExpectRollback()

		w := httptest.NewRecorder()
		service.HandleAttemptUnlock(w, request("payer-1",
			`{"targetId":"`+targetID+`","targetType":"PHOTO"}`))

		assert.Equal(t, http.StatusPaymentRequired, w.Code)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(10), body["coinsNeeded"])
		assert.Equal(t, float64(4), body["coinsAvailable"])
	})

	t.Run("missing confession returns 404", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(pricingSQL).
			WithArgs(targetID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		w := httptest.NewRecorder()
		service.HandleAttemptUnlock(w, request("payer-1",
			`{"targetId":"`+targetID+`","targetType":"PHOTO"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		service, _, cleanup := newUnlockFixture(t)
		defer cleanup()

		w := httptest.NewRecorder()
		service.HandleAttemptUnlock(w, request("payer-1", "not json"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		service, _, cleanup := newUnlockFixture(t)
		defer cleanup()

		w := httptest.NewRecorder()
		service.HandleAttemptUnlock(w, request("payer-1",
			`{"targetId":"`+targetID+`","targetType":"PHOTO","amount":999}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid target type rejected by validation", func(t *testing.T) {
		service, _, cleanup := newUnlockFixture(t)
		defer cleanup()

		w := httptest.NewRecorder()
		service.HandleAttemptUnlock(w, request("payer-1",
			`{"targetId":"`+targetID+`","targetType":"VIDEO"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no auth context", func(t *testing.T) {
		service, _, cleanup := newUnlockFixture(t)
		defer cleanup()

		w := httptest.NewRecorder()
		service.HandleAttemptUnlock(w, request("",
			`{"targetId":"`+targetID+`","targetType":"PHOTO"}`))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUnlockService_HandleListUnlocks_Cache(t *testing.T) {
	t.Run("cache hit skips the database", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		cached := &models.UserUnlocks{
			PhotoTargetIDs: []string{"conf-1"},
			ChatTargetIDs:  []string{},
		}
		cache := new(MockUnlockCache)
		cache.On("Get", anything, "user-1").Return(cached, true)
		service.cache = cache

		r := httptest.NewRequest("GET", "/unlocks", nil)
		r = r.WithContext(context.WithValue(r.Context(), "userID", "user-1"))
		w := httptest.NewRecorder()

		service.HandleListUnlocks(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "conf-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache miss reads the database and fills the cache", func(t *testing.T) {
		service, mock, cleanup := newUnlockFixture(t)
		defer cleanup()

		cache := new(MockUnlockCache)
		cache.On("Get", anything, "user-1").Return(nil, false)
		cache.On("Set", anything, "user-1", anything).Return()
		service.cache = cache

		mock.ExpectQuery(listUnlocksSQL).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"target_id", "target_type"}).
				AddRow("conf-9", "CHAT"))

		r := httptest.NewRequest("GET", "/unlocks", nil)
		r = r.WithContext(context.WithValue(r.Context(), "userID", "user-1"))
		w := httptest.NewRecorder()

		service.HandleListUnlocks(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "conf-9")
		cache.AssertCalled(t, "Set", anything, "user-1", anything)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/confessly/backend/internal/audit"
	"github.com/confessly/backend/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// RoomEnsurer provisions the chat room between payer and author after a CHAT
// unlock. It runs outside the purchase's atomic scope: a failure here is a
// retryable warning, never a rollback.
type RoomEnsurer interface {
	EnsureRoom(ctx context.Context, userA, userB, confessionID string) (string, error)
}

// UnlockCache is the read-through cache of per-user unlock listings. It only
// backs the listing endpoint; the purchase decision never consults it, and it
// is dropped after every successful purchase.
type UnlockCache interface {
	Get(ctx context.Context, userID string) (*models.UserUnlocks, bool)
	Set(ctx context.Context, userID string, unlocks *models.UserUnlocks)
	Invalidate(ctx context.Context, userID string)
}

// UnlockService is the unlock transaction engine plus the unlock registry.
// A purchase debits the payer, credits the author their revenue share,
// appends the ledger entries and inserts the unlock row as one database
// transaction. The unique constraint on (user_id, target_id, target_type)
// resolves concurrent duplicate purchases: the loser's whole transaction is
// rolled back and reported as already-unlocked.
type UnlockService struct {
	db                  *sql.DB
	ledger              *LedgerService
	rooms               RoomEnsurer
	cache               UnlockCache
	validator           *ValidationHelper
	audit               *audit.Logger
	revenueSharePercent int64
}

// UnlockOutcome is the caller-facing result of a purchase attempt.
type UnlockOutcome struct {
	UnlockID        string `json:"unlockId"`
	NewBalance      int64  `json:"newBalance"`
	CoinsSpent      int64  `json:"coinsSpent"`
	AlreadyUnlocked bool   `json:"alreadyUnlocked"`
	Warning         string `json:"warning,omitempty"`
}

func NewUnlockService(db *sql.DB, ledger *LedgerService, rooms RoomEnsurer, cache UnlockCache) *UnlockService {
	viper.SetDefault("unlock.revenue_share_percent", 50)
	return &UnlockService{
		db:                  db,
		ledger:              ledger,
		rooms:               rooms,
		cache:               cache,
		validator:           NewValidationHelper(),
		audit:               audit.NewLogger(),
		revenueSharePercent: viper.GetInt64("unlock.revenue_share_percent"),
	}
}

// SetRoomEnsurer breaks the construction cycle with the chat room service,
// which itself needs the unlock registry for access gating.
func (s *UnlockService) SetRoomEnsurer(rooms RoomEnsurer) {
	s.rooms = rooms
}

// AttemptUnlock executes one atomic unlock purchase, or reports the existing
// unlock when the (payer, target, type) tuple has already been paid for.
// At most one debit ever happens per tuple, no matter how many duplicate or
// concurrent attempts arrive.
func (s *UnlockService) AttemptUnlock(ctx context.Context, payerID, targetID string, targetType models.UnlockType) (*UnlockOutcome, error) {
	if !targetType.Valid() {
		return nil, ErrInvalidTarget
	}

	outcome, err := s.attemptUnlockOnce(ctx, payerID, targetID, targetType)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent attempt won the race. Our debit was rolled
			// back with the rest of the transaction; report theirs.
			return s.alreadyUnlockedOutcome(ctx, payerID, targetID, targetType)
		}
		return nil, err
	}

	if !outcome.AlreadyUnlocked {
		s.audit.LogUnlock(payerID, targetID, string(targetType), outcome.CoinsSpent)
		if s.cache != nil {
			s.cache.Invalidate(ctx, payerID)
		}
		if targetType == models.UnlockChat && s.rooms != nil && outcome.authorID != nil && *outcome.authorID != payerID {
			if _, err := s.rooms.EnsureRoom(ctx, payerID, *outcome.authorID, targetID); err != nil {
				// The purchase stands; room creation is retried on next open.
				log.Printf("[UNLOCK] Chat room provisioning failed for %s/%s: %v", payerID, targetID, err)
				outcome.Warning = "chat room provisioning failed, retry by opening the chat"
			}
		}
	}

	return &outcome.UnlockOutcome, nil
}

// unlockResult carries the author alongside the outcome so the post-commit
// room provisioning does not need a second pricing read.
type unlockResult struct {
	UnlockOutcome
	authorID *string
}

func (s *UnlockService) attemptUnlockOnce(ctx context.Context, payerID, targetID string, targetType models.UnlockType) (*unlockResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	pricing, err := s.getPricingTx(tx, targetID)
	if err != nil {
		return nil, err
	}

	cost := pricing.UnlockPrice
	kind := models.KindUnlockPhoto
	if targetType == models.UnlockChat {
		cost = pricing.ChatPrice
		kind = models.KindUnlockChat
	}

	// Fast path; the insert's unique constraint stays authoritative.
	if existing, err := s.findUnlockTx(tx, payerID, targetID, targetType); err != nil {
		return nil, err
	} else if existing != nil {
		balance, err := s.ledger.GetBalance(payerID)
		if err != nil {
			return nil, err
		}
		return &unlockResult{
			UnlockOutcome: UnlockOutcome{
				UnlockID:        existing.ID,
				NewBalance:      balance,
				CoinsSpent:      0,
				AlreadyUnlocked: true,
			},
			authorID: pricing.AuthorID,
		}, nil
	}

	newBalance, err := s.ledger.ApplyEntryTx(tx, payerID, -cost, kind, &targetID)
	if err != nil {
		return nil, err
	}

	// Authors earn a share of every unlock of their content. Self-unlocks
	// and ownerless anonymous posts skip the credit.
	if pricing.AuthorID != nil && *pricing.AuthorID != payerID {
		if share := cost * s.revenueSharePercent / 100; share > 0 {
			if _, err := s.ledger.ApplyEntryTx(tx, *pricing.AuthorID, share, models.KindEarnedFromUnlock, &targetID); err != nil {
				return nil, err
			}
		}
	}

	unlockID, err := s.recordUnlockTx(tx, payerID, targetID, targetType, cost)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[UNLOCK] Commit failed for %s/%s: %v", payerID, targetID, err)
		return nil, err
	}

	return &unlockResult{
		UnlockOutcome: UnlockOutcome{
			UnlockID:   unlockID,
			NewBalance: newBalance,
			CoinsSpent: cost,
		},
		authorID: pricing.AuthorID,
	}, nil
}

func (s *UnlockService) alreadyUnlockedOutcome(ctx context.Context, payerID, targetID string, targetType models.UnlockType) (*UnlockOutcome, error) {
	var unlockID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM unlocks
		WHERE user_id = $1 AND target_id = $2 AND target_type = $3`,
		payerID, targetID, string(targetType)).Scan(&unlockID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(payerID)
	if err != nil {
		return nil, err
	}

	return &UnlockOutcome{
		UnlockID:        unlockID,
		NewBalance:      balance,
		CoinsSpent:      0,
		AlreadyUnlocked: true,
	}, nil
}

// HasUnlocked answers the registry membership query used by UI gating.
func (s *UnlockService) HasUnlocked(ctx context.Context, userID, targetID string, targetType models.UnlockType) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM unlocks
			WHERE user_id = $1 AND target_id = $2 AND target_type = $3
		)`, userID, targetID, string(targetType)).Scan(&exists)
	return exists, err
}

// ListUnlocks returns every target the user has paid for, split by facet.
func (s *UnlockService) ListUnlocks(ctx context.Context, userID string) (*models.UserUnlocks, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_id, target_type FROM unlocks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unlocks := &models.UserUnlocks{
		PhotoTargetIDs: []string{},
		ChatTargetIDs:  []string{},
	}
	for rows.Next() {
		var targetID, targetType string
		if err := rows.Scan(&targetID, &targetType); err != nil {
			return nil, err
		}
		switch models.UnlockType(targetType) {
		case models.UnlockPhoto:
			unlocks.PhotoTargetIDs = append(unlocks.PhotoTargetIDs, targetID)
		case models.UnlockChat:
			unlocks.ChatTargetIDs = append(unlocks.ChatTargetIDs, targetID)
		}
	}
	return unlocks, rows.Err()
}

func (s *UnlockService) getPricingTx(tx *sql.Tx, targetID string) (*models.ConfessionPricing, error) {
	var pricing models.ConfessionPricing
	err := tx.QueryRow(`
		SELECT author_id, unlock_price, chat_price
		FROM confessions
		WHERE id = $1 AND is_active = true`, targetID).
		Scan(&pricing.AuthorID, &pricing.UnlockPrice, &pricing.ChatPrice)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pricing, nil
}

func (s *UnlockService) findUnlockTx(tx *sql.Tx, userID, targetID string, targetType models.UnlockType) (*models.Unlock, error) {
	var u models.Unlock
	err := tx.QueryRow(`
		SELECT id, coins_spent FROM unlocks
		WHERE user_id = $1 AND target_id = $2 AND target_type = $3`,
		userID, targetID, string(targetType)).Scan(&u.ID, &u.CoinsSpent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UnlockService) recordUnlockTx(tx *sql.Tx, userID, targetID string, targetType models.UnlockType, coinsSpent int64) (string, error) {
	unlockID := uuid.New().String()
	_, err := tx.Exec(`
		INSERT INTO unlocks (id, user_id, target_id, target_type, coins_spent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		unlockID, userID, targetID, string(targetType), coinsSpent, time.Now())
	if err != nil {
		return "", err
	}
	return unlockID, nil
}

// UnlockRequest is the purchase payload.
// @Description Unlock purchase request
type UnlockRequest struct {
	TargetID   string `json:"targetId" validate:"required,uuid4"`
	TargetType string `json:"targetType" validate:"required,oneof=PHOTO CHAT"`
}

// HandleAttemptUnlock processes an unlock purchase
// @Summary Unlock a confession facet
// @Description Pay coins to reveal a confession's photo or open its chat
// @Tags unlocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UnlockRequest true "Unlock request"
// @Success 200 {object} UnlockOutcome
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse "Insufficient coins"
// @Failure 404 {object} ErrorResponse
// @Router /unlocks [post]
func (s *UnlockService) HandleAttemptUnlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req UnlockRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	outcome, err := s.AttemptUnlock(r.Context(), userID, req.TargetID, models.UnlockType(req.TargetType))
	if err != nil {
		s.audit.LogError(userID, "UNLOCK", err)
		writeUnlockError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

func writeUnlockError(w http.ResponseWriter, err error) {
	var insufficient *InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error":          "Insufficient coins",
			"coinsNeeded":    insufficient.Needed,
			"coinsAvailable": insufficient.Available,
		})
	case errors.Is(err, ErrNotFound):
		SendErrorResponse(w, "Confession not found", http.StatusNotFound, nil)
	case errors.Is(err, ErrInvalidTarget):
		SendErrorResponse(w, "Invalid target type", http.StatusBadRequest, nil)
	default:
		SendErrorResponse(w, "Failed to unlock", http.StatusInternalServerError, nil)
	}
}

// HandleCheckUnlocked answers whether the caller has unlocked a target
// @Summary Check unlock status
// @Tags unlocks
// @Produce json
// @Security BearerAuth
// @Param targetId query string true "Confession ID"
// @Param targetType query string true "PHOTO or CHAT"
// @Success 200 {object} object{unlocked=bool}
// @Router /unlocks/check [get]
func (s *UnlockService) HandleCheckUnlocked(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	targetID := r.URL.Query().Get("targetId")
	targetType := models.UnlockType(r.URL.Query().Get("targetType"))
	if targetID == "" || !targetType.Valid() {
		SendErrorResponse(w, "targetId and targetType are required", http.StatusBadRequest, nil)
		return
	}

	unlocked, err := s.HasUnlocked(r.Context(), userID, targetID, targetType)
	if err != nil {
		log.Printf("[UNLOCK] Check failed for %s/%s: %v", userID, targetID, err)
		SendErrorResponse(w, "Failed to check unlock status", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"unlocked": unlocked})
}

// HandleListUnlocks lists everything the caller has unlocked
// @Summary List the caller's unlocks
// @Description Target IDs the caller has paid for, split into photo and chat facets
// @Tags unlocks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserUnlocks
// @Router /unlocks [get]
func (s *UnlockService) HandleListUnlocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if s.cache != nil {
		if cached, ok := s.cache.Get(r.Context(), userID); ok {
			json.NewEncoder(w).Encode(cached)
			return
		}
	}

	unlocks, err := s.ListUnlocks(r.Context(), userID)
	if err != nil {
		log.Printf("[UNLOCK] List failed for %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch unlocks", http.StatusInternalServerError, nil)
		return
	}

	if s.cache != nil {
		s.cache.Set(r.Context(), userID, unlocks)
	}

	json.NewEncoder(w).Encode(unlocks)
}

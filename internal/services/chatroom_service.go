package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/confessly/backend/internal/models"
	"github.com/google/uuid"
)

// ChatRoomService provisions chat rooms between a payer and a confession's
// author. Find-or-create is idempotent either way round the participant pair,
// so a retried CHAT unlock or a duplicate provisioning call converges on one
// room.
type ChatRoomService struct {
	db      *sql.DB
	unlocks *UnlockService
}

func NewChatRoomService(db *sql.DB, unlocks *UnlockService) *ChatRoomService {
	return &ChatRoomService{db: db, unlocks: unlocks}
}

// EnsureRoom returns the room for (confession, userA, userB), creating it on
// first call. Participant order does not matter.
func (s *ChatRoomService) EnsureRoom(ctx context.Context, userA, userB, confessionID string) (string, error) {
	var roomID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM chat_rooms
		WHERE confession_id = $1
		  AND ((participant_1 = $2 AND participant_2 = $3)
		    OR (participant_1 = $3 AND participant_2 = $2))`,
		confessionID, userA, userB).Scan(&roomID)
	if err == nil {
		return roomID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	roomID = uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_rooms (id, confession_id, participant_1, participant_2, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		roomID, confessionID, userA, userB, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a provisioning race; the winner's room serves.
			return s.EnsureRoom(ctx, userA, userB, confessionID)
		}
		return "", err
	}
	return roomID, nil
}

// HandleGetRoom opens the chat room for a confession
// @Summary Get the chat room for a confession
// @Description Returns the caller's room with the confession author. Requires a CHAT unlock unless the caller is the author.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param confessionId query string true "Confession ID"
// @Success 200 {object} models.ChatRoom
// @Failure 402 {object} ErrorResponse "Chat not unlocked"
// @Failure 404 {object} ErrorResponse
// @Router /chat/room [get]
func (s *ChatRoomService) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	confessionID := r.URL.Query().Get("confessionId")
	if confessionID == "" {
		SendErrorResponse(w, "confessionId is required", http.StatusBadRequest, nil)
		return
	}

	var authorID sql.NullString
	err := s.db.QueryRowContext(r.Context(), `
		SELECT author_id FROM confessions WHERE id = $1 AND is_active = true`,
		confessionID).Scan(&authorID)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Confession not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CHAT] Confession lookup failed for %s: %v", confessionID, err)
		SendErrorResponse(w, "Failed to open chat", http.StatusInternalServerError, nil)
		return
	}

	if !authorID.Valid {
		SendErrorResponse(w, "This confession has no author to chat with", http.StatusNotFound, nil)
		return
	}

	isAuthor := authorID.String == userID
	if !isAuthor {
		unlocked, err := s.unlocks.HasUnlocked(r.Context(), userID, confessionID, models.UnlockChat)
		if err != nil {
			log.Printf("[CHAT] Unlock check failed for %s/%s: %v", userID, confessionID, err)
			SendErrorResponse(w, "Failed to open chat", http.StatusInternalServerError, nil)
			return
		}
		if !unlocked {
			SendErrorResponse(w, "Chat not unlocked", http.StatusPaymentRequired, nil)
			return
		}
	}

	partnerID := authorID.String
	if isAuthor {
		// Authors open rooms that unlockers created; without a named
		// partner there is nothing to provision.
		partnerID = userID
	}

	roomID, err := s.EnsureRoom(r.Context(), userID, partnerID, confessionID)
	if err != nil {
		log.Printf("[CHAT] Room provisioning failed for %s/%s: %v", userID, confessionID, err)
		SendErrorResponse(w, "Failed to open chat", http.StatusInternalServerError, nil)
		return
	}

	var room models.ChatRoom
	err = s.db.QueryRowContext(r.Context(), `
		SELECT id, confession_id, participant_1, participant_2, created_at
		FROM chat_rooms WHERE id = $1`, roomID).
		Scan(&room.ID, &room.ConfessionID, &room.Participant1, &room.Participant2, &room.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Printf("[CHAT] Room read failed for %s: %v", roomID, err)
		SendErrorResponse(w, "Failed to open chat", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

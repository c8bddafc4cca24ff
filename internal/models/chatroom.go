package models

import (
	"time"
)

// ChatRoom links the two participants of a paid chat about one confession.
// Rooms are provisioned after a successful CHAT unlock; provisioning is
// outside the purchase's atomic scope and safe to retry.
type ChatRoom struct {
	ID           string    `json:"id" db:"id"`
	ConfessionID string    `json:"confession_id" db:"confession_id"`
	Participant1 string    `json:"participant_1" db:"participant_1"`
	Participant2 string    `json:"participant_2" db:"participant_2"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

package models

import (
	"time"
)

// UnlockType distinguishes the two purchasable facets of a confession.
type UnlockType string

const (
	UnlockPhoto UnlockType = "PHOTO"
	UnlockChat  UnlockType = "CHAT"
)

// Valid reports whether t is one of the known unlock types.
func (t UnlockType) Valid() bool {
	return t == UnlockPhoto || t == UnlockChat
}

// Unlock records that a user has paid for access to one facet of one
// confession. Unique per (user_id, target_id, target_type); the database
// constraint on that tuple is what makes duplicate purchases impossible.
type Unlock struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	TargetID   string     `json:"target_id" db:"target_id"`
	TargetType UnlockType `json:"target_type" db:"target_type"`
	CoinsSpent int64      `json:"coins_spent" db:"coins_spent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// UserUnlocks is the per-user view returned by the unlock listing endpoint
// and held in the read-through cache.
type UserUnlocks struct {
	PhotoTargetIDs []string `json:"photo_target_ids"`
	ChatTargetIDs  []string `json:"chat_target_ids"`
}

package models

import (
	"time"
)

// Confession is a post whose photo and chat access can each be unlocked for
// coins. AuthorID is nullable: fully anonymous confessions have no payable
// owner and unlock revenue for them is not shared with anyone.
type Confession struct {
	ID          string    `json:"id" db:"id"`
	AuthorID    *string   `json:"author_id,omitempty" db:"author_id"`
	Content     string    `json:"content" db:"content"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	IsAnonymous bool      `json:"is_anonymous" db:"is_anonymous"`
	Gender      string    `json:"gender" db:"gender"`
	Age         int       `json:"age" db:"age"`
	UnlockPrice int64     `json:"unlock_price" db:"unlock_price"`
	ChatPrice   int64     `json:"chat_price" db:"chat_price"`
	ViewCount   int64     `json:"view_count" db:"view_count"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ConfessionPricing is the slice of a confession the unlock engine reads at
// execution time to compute cost. Prices are never cached from an earlier
// quote.
type ConfessionPricing struct {
	AuthorID    *string
	UnlockPrice int64
	ChatPrice   int64
}

package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Statements are idempotent so Migrate can run on every boot. The unique
// constraint on unlocks(user_id, target_id, target_type) is load-bearing: it
// is what resolves concurrent duplicate purchases, not just an index.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		avatar_url TEXT,
		gender TEXT,
		age INT,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY REFERENCES users(id),
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version INT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		amount BIGINT NOT NULL,
		kind TEXT NOT NULL,
		reference_id UUID,
		balance_after BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_created
		ON transactions (account_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS confessions (
		id UUID PRIMARY KEY,
		author_id UUID REFERENCES users(id),
		content TEXT NOT NULL,
		image_url TEXT NOT NULL,
		is_anonymous BOOLEAN NOT NULL DEFAULT TRUE,
		gender TEXT NOT NULL,
		age INT NOT NULL,
		unlock_price BIGINT NOT NULL DEFAULT 10,
		chat_price BIGINT NOT NULL DEFAULT 5,
		view_count BIGINT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS unlocks (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		target_id UUID NOT NULL REFERENCES confessions(id),
		target_type TEXT NOT NULL CHECK (target_type IN ('PHOTO', 'CHAT')),
		coins_spent BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT unlocks_user_target_type_key UNIQUE (user_id, target_id, target_type)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
		id UUID PRIMARY KEY,
		confession_id UUID NOT NULL REFERENCES confessions(id),
		participant_1 UUID NOT NULL REFERENCES users(id),
		participant_2 UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chat_rooms_confession_pair_key UNIQUE (confession_id, participant_1, participant_2)
	)`,
}

// Migrate applies the schema.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	log.Println("Database schema up to date")
	return nil
}

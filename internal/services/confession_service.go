package services

import (
	"context"
	"database/sql"
	"log"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/confessly/backend/internal/models"
	"github.com/google/uuid"
)

var allowedImageHosts = []string{
	"images.unsplash.com",
	"unsplash.com",
	"picsum.photos",
	"i.pravatar.cc",
	"randomuser.me",
	"encrypted-tbn0.gstatic.com",
}

var fallbackImages = []string{
	"https://images.unsplash.com/photo-1517841905240-472988babdf9?w=400&h=400&fit=crop",
	"https://images.unsplash.com/photo-1539571696357-5a69c17a67c6?w=400&h=400&fit=crop",
	"https://images.unsplash.com/photo-1524504388940-b1c1722653e1?w=400&h=400&fit=crop",
}

// ConfessionService owns the confession rows the unlock engine prices
// against. Prices are fixed at creation time; the engine reads them at
// purchase time and never writes back.
type ConfessionService struct {
	db *sql.DB
}

// CreateConfessionInput carries a new confession's content and pricing.
type CreateConfessionInput struct {
	Content     string `json:"content" validate:"required,min=10,max=2000"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	IsAnonymous bool   `json:"isAnonymous"`
	Gender      string `json:"gender" validate:"required"`
	Age         int    `json:"age" validate:"required,min=13,max=120"`
	UnlockPrice int64  `json:"unlockPrice" validate:"min=0,max=100"`
	ChatPrice   int64  `json:"chatPrice" validate:"min=0,max=50"`
}

// ConfessionPage is one page of the feed.
type ConfessionPage struct {
	Confessions []models.Confession `json:"confessions"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	TotalPages  int64               `json:"totalPages"`
}

func NewConfessionService(db *sql.DB) *ConfessionService {
	return &ConfessionService{db: db}
}

// Create inserts a confession for authorID. The image URL is replaced with a
// fallback unless it is https on an allowlisted host.
func (s *ConfessionService) Create(ctx context.Context, authorID string, input CreateConfessionInput) (string, error) {
	imageURL := sanitizeImageURL(input.ImageURL)
	if imageURL == "" {
		imageURL = fallbackImages[rand.Intn(len(fallbackImages))]
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confessions (id, author_id, content, image_url, is_anonymous, gender, age, unlock_price, chat_price, view_count, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, true, $10)`,
		id, authorID, input.Content, imageURL, input.IsAnonymous, input.Gender, input.Age,
		input.UnlockPrice, input.ChatPrice, time.Now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns the active feed, newest first.
func (s *ConfessionService) List(ctx context.Context, page, limit int) (*ConfessionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM confessions WHERE is_active = true`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, content, image_url, is_anonymous, gender, age, unlock_price, chat_price, view_count, is_active, created_at
		FROM confessions
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	confessions := []models.Confession{}
	for rows.Next() {
		var c models.Confession
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.Content, &c.ImageURL, &c.IsAnonymous, &c.Gender,
			&c.Age, &c.UnlockPrice, &c.ChatPrice, &c.ViewCount, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		confessions = append(confessions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	return &ConfessionPage{Confessions: confessions, Total: total, Page: page, TotalPages: totalPages}, nil
}

// GetByID fetches one active confession and bumps its view counter. The bump
// is best effort and not part of any invariant.
func (s *ConfessionService) GetByID(ctx context.Context, id string) (*models.Confession, error) {
	var c models.Confession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, content, image_url, is_anonymous, gender, age, unlock_price, chat_price, view_count, is_active, created_at
		FROM confessions
		WHERE id = $1 AND is_active = true`, id).
		Scan(&c.ID, &c.AuthorID, &c.Content, &c.ImageURL, &c.IsAnonymous, &c.Gender,
			&c.Age, &c.UnlockPrice, &c.ChatPrice, &c.ViewCount, &c.IsActive, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE confessions SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		log.Printf("[CONFESSION] View count bump failed for %s: %v", id, err)
	}

	return &c, nil
}

func sanitizeImageURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "https" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	for _, allowed := range allowedImageHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return parsed.String()
		}
	}
	return ""
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindhaven/mindhaven/internal/models"
	"github.com/mindhaven/mindhaven/internal/store"
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrSelfMessage  = errors.New("cannot message yourself")
)

// ChatService appends to the per-pair conversation log. Reads go through the
// store; clients poll the read endpoint to observe new messages.
type ChatService struct {
	db *pgxpool.Pool
}

func NewChatService(db *pgxpool.Pool) *ChatService {
	return &ChatService{db: db}
}

// Append adds a message to the conversation between sender and other,
// creating the conversation on first contact. Returns only an ack; the
// caller re-reads the log to observe the message.
func (s *ChatService) Append(ctx context.Context, sender, other uuid.UUID, text string) error {
	// A conversation needs two distinct participants; the strict low < high
	// pair key cannot represent a self-conversation.
	if sender == other {
		return ErrSelfMessage
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", other).Scan(&exists)
	if err != nil {
		return fmt.Errorf("recipient lookup failed: %w", err)
	}
	if !exists {
		return store.ErrUserNotFound
	}

	low, high := models.NormalizePair(sender, other)

	// Lazy create. ON CONFLICT DO NOTHING returns no id on the conflict
	// path, so a plain select follows.
	_, err = tx.Exec(ctx,
		"INSERT INTO conversations (user_low, user_high) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		low, high)
	if err != nil {
		return fmt.Errorf("conversation create failed: %w", err)
	}

	var conversationID int64
	err = tx.QueryRow(ctx,
		"SELECT id FROM conversations WHERE user_low = $1 AND user_high = $2",
		low, high).Scan(&conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("conversation vanished after create")
		}
		return fmt.Errorf("conversation lookup failed: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO messages (conversation_id, sender_id, body) VALUES ($1, $2, $3)",
		conversationID, sender, text)
	if err != nil {
		return fmt.Errorf("message insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

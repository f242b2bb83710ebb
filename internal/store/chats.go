package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mindhaven/mindhaven/internal/models"
)

// GetConversation returns the full message log between two users in append
// order. A pair that has never talked yields an empty slice, not an error.
func (s *Store) GetConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	low, high := models.NormalizePair(a, b)

	rows, err := s.Db.Query(ctx,
		`SELECT m.sender_id, u.firstname, m.body, m.created_at
		 FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 JOIN users u ON u.id = m.sender_id
		 WHERE c.user_low = $1 AND c.user_high = $2
		 ORDER BY m.id`,
		low, high)
	if err != nil {
		return nil, fmt.Errorf("conversation query failed: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Sender, &m.SenderName, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

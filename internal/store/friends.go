package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mindhaven/mindhaven/internal/models"
)

// ListFriends returns the caller's friends. The friendships table holds both
// directions, so a single-direction query is complete.
func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT u.id, u.firstname, u.lastname, u.email
		 FROM friendships f
		 JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = $1
		 ORDER BY u.firstname, u.lastname`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("friend list query failed: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListIncomingRequests returns users who sent the caller a pending request.
func (s *Store) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT u.id, u.firstname, u.lastname, u.email
		 FROM friend_requests r
		 JOIN users u ON u.id = r.requester
		 WHERE (r.user_low = $1 OR r.user_high = $1) AND r.requester <> $1
		 ORDER BY r.created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("incoming request query failed: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListOutgoingRequests returns users the caller has a pending request to.
func (s *Store) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT u.id, u.firstname, u.lastname, u.email
		 FROM friend_requests r
		 JOIN users u ON u.id = CASE WHEN r.user_low = $1 THEN r.user_high ELSE r.user_low END
		 WHERE r.requester = $1
		 ORDER BY r.created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("outgoing request query failed: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

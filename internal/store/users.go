package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindhaven/mindhaven/internal/models"
)

// GetUser retrieves a user's profile by id.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.Db.QueryRow(ctx,
		"SELECT id, firstname, lastname, email, created_at FROM users WHERE id = $1",
		id).Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user including the password hash, for signin.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.Db.QueryRow(ctx,
		"SELECT id, firstname, lastname, email, password_hash, created_at FROM users WHERE email = $1",
		email).Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SearchUsers returns users whose first or last name contains the filter,
// case-insensitively. An empty filter matches everyone.
func (s *Store) SearchUsers(ctx context.Context, filter string) ([]models.UserSummary, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, firstname, lastname, email FROM users
		 WHERE firstname ILIKE '%' || $1 || '%' OR lastname ILIKE '%' || $1 || '%'
		 ORDER BY firstname, lastname`,
		filter)
	if err != nil {
		return nil, fmt.Errorf("user search failed: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListDiscoverable returns every user with whom the caller has no
// relationship at all: not self, not a friend, no pending request in either
// direction.
func (s *Store) ListDiscoverable(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, firstname, lastname, email FROM users
		 WHERE id <> $1
		   AND id NOT IN (SELECT friend_id FROM friendships WHERE user_id = $1)
		   AND id NOT IN (
		       SELECT CASE WHEN user_low = $1 THEN user_high ELSE user_low END
		       FROM friend_requests
		       WHERE user_low = $1 OR user_high = $1)
		 ORDER BY firstname, lastname`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("discovery query failed: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindhaven/mindhaven/internal/models"
)

// GetAccount retrieves one user's wallet.
func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := s.Db.QueryRow(ctx,
		"SELECT user_id, balance, created_at FROM accounts WHERE user_id = $1",
		userID).Scan(&account.UserID, &account.Balance, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetEntries retrieves the ledger history for an account, newest first.
func (s *Store) GetEntries(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	var exists bool
	err := s.Db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)", userID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	rows, err := s.Db.Query(ctx,
		"SELECT account_id, delta FROM ledger_entries WHERE account_id = $1 ORDER BY id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(&entry.AccountID, &entry.Delta); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

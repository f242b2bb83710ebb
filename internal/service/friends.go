package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindhaven/mindhaven/internal/models"
	"github.com/mindhaven/mindhaven/internal/store"
)

var (
	ErrSelfRequest      = errors.New("cannot send request to yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrAlreadyRequested = errors.New("request already pending")
	ErrNoSuchRequest    = errors.New("no pending request from this user")
)

// FriendService owns the relationship state machine. Every transition spans
// both users' state and runs inside one transaction.
type FriendService struct {
	db *pgxpool.Pool
}

func NewFriendService(db *pgxpool.Pool) *FriendService {
	return &FriendService{db: db}
}

// lockPair locks both users' rows in id order, serializing every
// relationship transition for the pair; a send racing an accept waits and
// then sees the committed friendship. A missing row surfaces as
// store.ErrUserNotFound.
func lockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error {
	low, high := models.NormalizePair(a, b)
	for _, id := range []uuid.UUID{low, high} {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock acquisition failed: %w", err)
		}
	}
	return nil
}

// SendRequest moves the pair (sender, receiver) from None to pending.
// The unordered-pair primary key on friend_requests guarantees exactly one
// winner when both sides, or the same side twice, race to create a request.
func (s *FriendService) SendRequest(ctx context.Context, sender, receiver uuid.UUID) error {
	if sender == receiver {
		return ErrSelfRequest
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPair(ctx, tx, sender, receiver); err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)",
		sender, receiver).Scan(&exists)
	if err != nil {
		return fmt.Errorf("friendship lookup failed: %w", err)
	}
	if exists {
		return ErrAlreadyFriends
	}

	low, high := models.NormalizePair(sender, receiver)
	tag, err := tx.Exec(ctx,
		"INSERT INTO friend_requests (user_low, user_high, requester) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		low, high, sender)
	if err != nil {
		return fmt.Errorf("request insert failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// A request already exists for this pair, sent by either side.
		return ErrAlreadyRequested
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// AcceptRequest is invoked by the receiver against the original sender.
// Deleting the pending request and inserting both friendship rows commit as
// one unit, so a crash can never leave the pair half-befriended.
func (s *FriendService) AcceptRequest(ctx context.Context, sender, receiver uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPair(ctx, tx, sender, receiver); err != nil {
		return err
	}

	low, high := models.NormalizePair(sender, receiver)
	tag, err := tx.Exec(ctx,
		"DELETE FROM friend_requests WHERE user_low = $1 AND user_high = $2 AND requester = $3",
		low, high, sender)
	if err != nil {
		return fmt.Errorf("request delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSuchRequest
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)",
		sender, receiver)
	if err != nil {
		return fmt.Errorf("friendship insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

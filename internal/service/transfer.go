package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindhaven/mindhaven/internal/models"
	"github.com/mindhaven/mindhaven/internal/store"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrIdempotencyConflict = errors.New("request in progress")
	ErrIdempotencyMismatch = errors.New("key reuse with mismatched payload")
)

type TransferService struct {
	db *pgxpool.Pool
}

func NewTransferService(db *pgxpool.Pool) *TransferService {
	return &TransferService{db: db}
}

// Transfer moves amount from one wallet to another as a single transaction:
// both accounts are locked in deterministic order, the funds check reads the
// locked row, and the debit, credit, transfer record and ledger entries
// commit together or not at all.
//
// idempotencyKey is optional. When present, a retried request with the same
// key and body replays the stored response instead of transferring twice.
func (s *TransferService) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, idempotencyKey, reqHash string) (*models.TransferResponse, *models.IdempotencyRecord, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if from == to {
		return nil, nil, ErrSelfTransfer
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if idempotencyKey != "" {
		replay, err := s.checkIdempotency(ctx, tx, idempotencyKey, reqHash)
		if err != nil {
			return nil, nil, err
		}
		if replay != nil {
			return nil, replay, nil
		}
	}

	// Lock both accounts in id order so two opposing transfers cannot
	// deadlock.
	lockFirst, lockSecond := models.NormalizePair(from, to)

	var balanceFirst, balanceSecond int64
	err = tx.QueryRow(ctx, "SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE", lockFirst).Scan(&balanceFirst)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, store.ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	err = tx.QueryRow(ctx, "SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE", lockSecond).Scan(&balanceSecond)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, store.ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("lock acquisition failed: %w", err)
	}

	fromBalance := balanceFirst
	if from != lockFirst {
		fromBalance = balanceSecond
	}
	if fromBalance < amount {
		return nil, nil, ErrInsufficientFunds
	}

	var transferID int64
	err = tx.QueryRow(ctx,
		"INSERT INTO transfers (from_user_id, to_user_id, amount, status) VALUES ($1, $2, $3, 'completed') RETURNING id",
		from, to, amount,
	).Scan(&transferID)
	if err != nil {
		return nil, nil, fmt.Errorf("transfer insert failed: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO ledger_entries (transfer_id, account_id, delta) VALUES ($1, $2, $3), ($1, $4, $5)",
		transferID, from, -amount, to, amount,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger entry failed: %w", err)
	}

	_, err = tx.Exec(ctx, "UPDATE accounts SET balance = balance - $1 WHERE user_id = $2", amount, from)
	if err != nil {
		return nil, nil, err
	}
	_, err = tx.Exec(ctx, "UPDATE accounts SET balance = balance + $1 WHERE user_id = $2", amount, to)
	if err != nil {
		return nil, nil, err
	}

	resp := &models.TransferResponse{
		Transfer: models.Transfer{
			ID:         transferID,
			FromUserID: from,
			ToUserID:   to,
			Amount:     amount,
			Status:     "completed",
		},
		Entries: []models.LedgerEntry{
			{AccountID: from, Delta: -amount},
			{AccountID: to, Delta: amount},
		},
	}

	if idempotencyKey != "" {
		respBody, err := json.Marshal(resp)
		if err != nil {
			return nil, nil, err
		}
		_, err = tx.Exec(ctx,
			"UPDATE idempotency_keys SET status = 'completed', transfer_id = $1, response_status = $2, response_body = $3 WHERE key = $4",
			transferID, http.StatusCreated, respBody, idempotencyKey,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("idempotency update failed: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("tx commit failed: %w", err)
	}

	return resp, nil, nil
}

// checkIdempotency returns a stored record when the key has already
// completed, reserves the key otherwise. A reservation conflict means a
// concurrent request with the same key is still in flight.
func (s *TransferService) checkIdempotency(ctx context.Context, tx pgx.Tx, key, reqHash string) (*models.IdempotencyRecord, error) {
	// response_status and response_body stay NULL until the original
	// request commits, so both scan through pointers.
	var storedStatus *int
	var storedBody []byte
	var storedHash string
	err := tx.QueryRow(ctx,
		"SELECT response_status, response_body, request_hash FROM idempotency_keys WHERE key = $1",
		key,
	).Scan(&storedStatus, &storedBody, &storedHash)

	if err == nil {
		if storedHash != reqHash {
			return nil, ErrIdempotencyMismatch
		}
		if storedStatus == nil {
			return nil, ErrIdempotencyConflict
		}
		return &models.IdempotencyRecord{
			Key:            key,
			Status:         "completed",
			ResponseBody:   json.RawMessage(storedBody),
			ResponseStatus: *storedStatus,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("idempotency query failed: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO idempotency_keys (key, request_hash, status) VALUES ($1, $2, 'in_progress')",
		key, reqHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrIdempotencyConflict
		}
		return nil, fmt.Errorf("key reservation failed: %w", err)
	}
	return nil, nil
}

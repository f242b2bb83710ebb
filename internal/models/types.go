package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is an identity record. PasswordHash never leaves the backend.
type User struct {
	ID           uuid.UUID `json:"id"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the public projection used by search, discovery and
// friend/request listings.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
}

// Account holds one user's wallet balance in minor units.
type Account struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Transfer is the immutable record of a committed debit-credit pair.
type Transfer struct {
	ID         int64     `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// LedgerEntry is one leg of the double-entry record. The deltas of a
// transfer always sum to zero.
type LedgerEntry struct {
	AccountID uuid.UUID `json:"account_id"`
	Delta     int64     `json:"delta"`
}

// TransferResponse is the canonical success payload for a transfer.
type TransferResponse struct {
	Transfer Transfer      `json:"transfer"`
	Entries  []LedgerEntry `json:"entries"`
}

// IdempotencyRecord holds the stored outcome of a previously seen
// Idempotency-Key, replayed verbatim on retries.
type IdempotencyRecord struct {
	Key            string
	RequestHash    string
	Status         string
	ResponseBody   json.RawMessage
	ResponseStatus int
}

// Message is one entry in a two-party conversation. Ordering is append
// order; the timestamp is informational.
type Message struct {
	Sender     uuid.UUID `json:"sender"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// Request/response DTOs for the HTTP layer.

type SignupRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TransferRequest struct {
	To     uuid.UUID `json:"to"`
	Amount int64     `json:"amount"`
}

type MessageRequest struct {
	Text string `json:"text"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

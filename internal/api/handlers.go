package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/mindhaven/mindhaven/internal/models"
	"github.com/mindhaven/mindhaven/internal/service"
	"github.com/mindhaven/mindhaven/internal/store"
)

// AuthService signs users up and in, returning a bearer token.
type AuthService interface {
	Signup(ctx context.Context, req models.SignupRequest) (string, error)
	Signin(ctx context.Context, email, password string) (string, error)
}

// TransferService executes the atomic wallet transfer.
type TransferService interface {
	Transfer(ctx context.Context, from, to uuid.UUID, amount int64, idempotencyKey, reqHash string) (*models.TransferResponse, *models.IdempotencyRecord, error)
}

// FriendService drives the relationship state machine.
type FriendService interface {
	SendRequest(ctx context.Context, sender, receiver uuid.UUID) error
	AcceptRequest(ctx context.Context, sender, receiver uuid.UUID) error
}

// ChatService appends to conversation logs.
type ChatService interface {
	Append(ctx context.Context, sender, other uuid.UUID, text string) error
}

// Directory is the read side: profiles, balances, relationship lists and
// conversation logs.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SearchUsers(ctx context.Context, filter string) ([]models.UserSummary, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	GetEntries(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	ListDiscoverable(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	GetConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
}

type Handler struct {
	dir       Directory
	auth      AuthService
	transfers TransferService
	friends   FriendService
	chats     ChatService
}

func NewHandler(dir Directory, auth AuthService, transfers TransferService, friends FriendService, chats ChatService) *Handler {
	return &Handler{
		dir:       dir,
		auth:      auth,
		transfers: transfers,
		friends:   friends,
		chats:     chats,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondServiceError maps the component error taxonomy onto HTTP status
// codes: not-found 404, business-rule rejections 400, bad credentials 401,
// in-flight idempotency conflicts 409, everything unexpected 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, service.ErrNoSuchRequest):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSelfTransfer),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrSelfRequest),
		errors.Is(err, service.ErrAlreadyFriends),
		errors.Is(err, service.ErrAlreadyRequested),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrSelfMessage),
		errors.Is(err, service.ErrInvalidSignup),
		errors.Is(err, service.ErrEmailTaken):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrIdempotencyConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIdempotencyMismatch):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

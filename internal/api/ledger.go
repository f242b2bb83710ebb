package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mindhaven/mindhaven/internal/models"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	account, err := h.dir.GetAccount(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"balance": account.Balance})
}

// GetEntries lists the caller's ledger history, newest first.
func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	entries, err := h.dir.GetEntries(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.LedgerEntry{"entries": entries})
}

// CreateTransfer debits the caller and credits the recipient atomically.
// An optional Idempotency-Key header makes retries safe: a replayed key with
// the same body returns the original response.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stream read error")
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	var req models.TransferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	var reqHash string
	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey != "" {
		sum := sha256.Sum256(body)
		reqHash = hex.EncodeToString(sum[:])
	}

	resp, replay, err := h.transfers.Transfer(r.Context(), userID, req.To, req.Amount, idempotencyKey, reqHash)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if replay != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(replay.ResponseStatus)
		w.Write(replay.ResponseBody)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

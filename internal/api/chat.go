package api

import (
	"encoding/json"
	"net/http"

	"github.com/mindhaven/mindhaven/internal/models"
)

// GetChat returns the ordered message log with the peer in {id}. A pair that
// has never exchanged messages gets an empty list, never an error; clients
// poll this endpoint to observe new messages.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	other, ok := peerID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	messages, err := h.dir.GetConversation(r.Context(), userID, other)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.Message{"messages": messages})
}

// SendMessage appends to the conversation with {id} and returns only an ack.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	other, ok := peerID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := h.chats.Append(r.Context(), userID, other, req.Text); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "sent"})
}

package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mindhaven/mindhaven/internal/models"
)

// peerID parses the {id} path variable shared by the community routes.
func peerID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	h.listForCaller(w, r, h.dir.ListDiscoverable)
}

func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	h.listForCaller(w, r, h.dir.ListFriends)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	h.listForCaller(w, r, h.dir.ListIncomingRequests)
}

func (h *Handler) ListSentRequests(w http.ResponseWriter, r *http.Request) {
	h.listForCaller(w, r, h.dir.ListOutgoingRequests)
}

func (h *Handler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	receiver, ok := peerID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.friends.SendRequest(r.Context(), userID, receiver); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "friend request sent"})
}

// AcceptFriendRequest is called by the receiver; {id} is the original sender.
func (h *Handler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	sender, ok := peerID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.friends.AcceptRequest(r.Context(), sender, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
}

func (h *Handler) listForCaller(w http.ResponseWriter, r *http.Request, query func(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	users, err := query(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.UserSummary{"users": users})
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mindhaven/mindhaven/internal/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the request boundary: health and metrics at the root,
// the versioned API underneath, and every protected route behind the bearer
// middleware.
func NewRouter(h *Handler, tokens *auth.JWTManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(Observe)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/user/signup", h.Signup).Methods(http.MethodPost)
	v1.HandleFunc("/user/signin", h.Signin).Methods(http.MethodPost)

	protected := v1.NewRoute().Subrouter()
	protected.Use(RequireAuth(tokens))

	protected.HandleFunc("/user/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/user/search", h.SearchUsers).Methods(http.MethodGet)

	protected.HandleFunc("/account/balance", h.GetBalance).Methods(http.MethodGet)
	protected.HandleFunc("/account/transfer", h.CreateTransfer).Methods(http.MethodPost)
	protected.HandleFunc("/account/entries", h.GetEntries).Methods(http.MethodGet)

	protected.HandleFunc("/community/discover", h.Discover).Methods(http.MethodGet)
	protected.HandleFunc("/community/friends", h.ListFriends).Methods(http.MethodGet)
	protected.HandleFunc("/community/requests", h.ListRequests).Methods(http.MethodGet)
	protected.HandleFunc("/community/sent", h.ListSentRequests).Methods(http.MethodGet)
	protected.HandleFunc("/community/request/{id}", h.SendFriendRequest).Methods(http.MethodPost)
	protected.HandleFunc("/community/accept/{id}", h.AcceptFriendRequest).Methods(http.MethodPost)
	protected.HandleFunc("/community/chat/{id}", h.GetChat).Methods(http.MethodGet)
	protected.HandleFunc("/community/chat/{id}", h.SendMessage).Methods(http.MethodPost)

	return r
}

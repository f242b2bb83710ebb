package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mindhaven/mindhaven/internal/api"
	"github.com/mindhaven/mindhaven/internal/auth"
	"github.com/mindhaven/mindhaven/internal/models"
	"github.com/mindhaven/mindhaven/internal/service"
	"github.com/mindhaven/mindhaven/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stubs with overridable function fields so each test controls exactly the
// calls it cares about.

type stubDirectory struct {
	getUser         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	getAccount      func(ctx context.Context, id uuid.UUID) (*models.Account, error)
	getEntries      func(ctx context.Context, id uuid.UUID) ([]models.LedgerEntry, error)
	getConversation func(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
	list            func(ctx context.Context, id uuid.UUID) ([]models.UserSummary, error)
}

func (s *stubDirectory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, id)
}

func (s *stubDirectory) SearchUsers(ctx context.Context, filter string) ([]models.UserSummary, error) {
	return s.list(ctx, uuid.Nil)
}

func (s *stubDirectory) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.getAccount(ctx, id)
}

func (s *stubDirectory) GetEntries(ctx context.Context, id uuid.UUID) ([]models.LedgerEntry, error) {
	return s.getEntries(ctx, id)
}

func (s *stubDirectory) ListFriends(ctx context.Context, id uuid.UUID) ([]models.UserSummary, error) {
	return s.list(ctx, id)
}

func (s *stubDirectory) ListIncomingRequests(ctx context.Context, id uuid.UUID) ([]models.UserSummary, error) {
	return s.list(ctx, id)
}

func (s *stubDirectory) ListOutgoingRequests(ctx context.Context, id uuid.UUID) ([]models.UserSummary, error) {
	return s.list(ctx, id)
}

func (s *stubDirectory) ListDiscoverable(ctx context.Context, id uuid.UUID) ([]models.UserSummary, error) {
	return s.list(ctx, id)
}

func (s *stubDirectory) GetConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	return s.getConversation(ctx, a, b)
}

type stubAuth struct {
	signup func(ctx context.Context, req models.SignupRequest) (string, error)
	signin func(ctx context.Context, email, password string) (string, error)
}

func (s *stubAuth) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	return s.signup(ctx, req)
}

func (s *stubAuth) Signin(ctx context.Context, email, password string) (string, error) {
	return s.signin(ctx, email, password)
}

type stubTransfers struct {
	transfer func(ctx context.Context, from, to uuid.UUID, amount int64, key, hash string) (*models.TransferResponse, *models.IdempotencyRecord, error)
}

func (s *stubTransfers) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, key, hash string) (*models.TransferResponse, *models.IdempotencyRecord, error) {
	return s.transfer(ctx, from, to, amount, key, hash)
}

type stubFriends struct {
	send   func(ctx context.Context, sender, receiver uuid.UUID) error
	accept func(ctx context.Context, sender, receiver uuid.UUID) error
}

func (s *stubFriends) SendRequest(ctx context.Context, sender, receiver uuid.UUID) error {
	return s.send(ctx, sender, receiver)
}

func (s *stubFriends) AcceptRequest(ctx context.Context, sender, receiver uuid.UUID) error {
	return s.accept(ctx, sender, receiver)
}

type stubChats struct {
	appendFn func(ctx context.Context, sender, other uuid.UUID, text string) error
}

func (s *stubChats) Append(ctx context.Context, sender, other uuid.UUID, text string) error {
	return s.appendFn(ctx, sender, other, text)
}

type fixture struct {
	dir       *stubDirectory
	auth      *stubAuth
	transfers *stubTransfers
	friends   *stubFriends
	chats     *stubChats
	tokens    *auth.JWTManager
	server    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		dir:       &stubDirectory{},
		auth:      &stubAuth{},
		transfers: &stubTransfers{},
		friends:   &stubFriends{},
		chats:     &stubChats{},
		tokens:    auth.NewJWTManager("handler-test-secret-32-bytes-min!", time.Hour),
	}

	handler := api.NewHandler(f.dir, f.auth, f.transfers, f.friends, f.chats)
	f.server = httptest.NewServer(api.NewRouter(handler, f.tokens))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) request(t *testing.T, method, path string, body any, userID *uuid.UUID) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		token, err := f.tokens.Generate(*userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSignupReturnsToken(t *testing.T) {
	f := newFixture(t)
	f.auth.signup = func(ctx context.Context, req models.SignupRequest) (string, error) {
		assert.Equal(t, "riya@example.com", req.Email)
		return "issued-token", nil
	}

	resp := f.request(t, http.MethodPost, "/api/v1/user/signup", models.SignupRequest{
		Firstname: "Riya", Email: "riya@example.com", Password: "hunter22",
	}, nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[models.TokenResponse](t, resp)
	assert.Equal(t, "issued-token", body.Token)
}

func TestSignupRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.auth.signup = func(ctx context.Context, req models.SignupRequest) (string, error) {
		return "", service.ErrInvalidSignup
	}

	resp := f.request(t, http.MethodPost, "/api/v1/user/signup", models.SignupRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSigninRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.auth.signin = func(ctx context.Context, email, password string) (string, error) {
		return "", service.ErrInvalidCredentials
	}

	resp := f.request(t, http.MethodPost, "/api/v1/user/signin", models.SigninRequest{
		Email: "riya@example.com", Password: "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/api/v1/account/balance", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/account/balance", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer bogus")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.getAccount = func(ctx context.Context, id uuid.UUID) (*models.Account, error) {
		assert.Equal(t, userID, id)
		return &models.Account{UserID: id, Balance: 7350}, nil
	}

	resp := f.request(t, http.MethodGet, "/api/v1/account/balance", nil, &userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]int64](t, resp)
	assert.Equal(t, int64(7350), body["balance"])
}

func TestGetBalanceAccountMissing(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.getAccount = func(ctx context.Context, id uuid.UUID) (*models.Account, error) {
		return nil, store.ErrAccountNotFound
	}

	resp := f.request(t, http.MethodGet, "/api/v1/account/balance", nil, &userID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetEntriesListsHistory(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.getEntries = func(ctx context.Context, id uuid.UUID) ([]models.LedgerEntry, error) {
		assert.Equal(t, userID, id)
		return []models.LedgerEntry{
			{AccountID: id, Delta: 30},
			{AccountID: id, Delta: -30},
		}, nil
	}

	resp := f.request(t, http.MethodGet, "/api/v1/account/entries", nil, &userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]models.LedgerEntry](t, resp)
	assert.Len(t, body["entries"], 2)
	assert.Equal(t, int64(30), body["entries"][0].Delta)
}

func TestGetEntriesAccountMissing(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.getEntries = func(ctx context.Context, id uuid.UUID) ([]models.LedgerEntry, error) {
		return nil, store.ErrAccountNotFound
	}

	resp := f.request(t, http.MethodGet, "/api/v1/account/entries", nil, &userID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateTransferSuccess(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()
	recipient := uuid.New()

	f.transfers.transfer = func(ctx context.Context, from, to uuid.UUID, amount int64, key, hash string) (*models.TransferResponse, *models.IdempotencyRecord, error) {
		assert.Equal(t, sender, from)
		assert.Equal(t, recipient, to)
		assert.Equal(t, int64(30), amount)
		return &models.TransferResponse{
			Transfer: models.Transfer{ID: 1, FromUserID: from, ToUserID: to, Amount: amount, Status: "completed"},
			Entries: []models.LedgerEntry{
				{AccountID: from, Delta: -amount},
				{AccountID: to, Delta: amount},
			},
		}, nil, nil
	}

	resp := f.request(t, http.MethodPost, "/api/v1/account/transfer", models.TransferRequest{To: recipient, Amount: 30}, &sender)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[models.TransferResponse](t, resp)
	var sum int64
	for _, e := range body.Entries {
		sum += e.Delta
	}
	assert.Zero(t, sum, "ledger deltas must conserve the total")
}

func TestCreateTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()
	f.transfers.transfer = func(ctx context.Context, from, to uuid.UUID, amount int64, key, hash string) (*models.TransferResponse, *models.IdempotencyRecord, error) {
		return nil, nil, service.ErrInsufficientFunds
	}

	resp := f.request(t, http.MethodPost, "/api/v1/account/transfer", models.TransferRequest{To: uuid.New(), Amount: 1000}, &sender)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateTransferReplaysIdempotentResponse(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()
	stored := []byte(`{"transfer":{"id":42}}`)
	f.transfers.transfer = func(ctx context.Context, from, to uuid.UUID, amount int64, key, hash string) (*models.TransferResponse, *models.IdempotencyRecord, error) {
		assert.Equal(t, "retry-1", key)
		assert.NotEmpty(t, hash)
		return nil, &models.IdempotencyRecord{ResponseStatus: http.StatusCreated, ResponseBody: stored}, nil
	}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(models.TransferRequest{To: uuid.New(), Amount: 5}))
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/account/transfer", &buf)
	require.NoError(t, err)
	token, err := f.tokens.Generate(sender)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "retry-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		Transfer struct {
			ID int64 `json:"id"`
		} `json:"transfer"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(42), out.Transfer.ID)
}

func TestSendFriendRequestConflict(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()
	f.friends.send = func(ctx context.Context, from, to uuid.UUID) error {
		return service.ErrAlreadyRequested
	}

	resp := f.request(t, http.MethodPost, "/api/v1/community/request/"+uuid.NewString(), nil, &sender)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendFriendRequestBadPeerID(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()

	resp := f.request(t, http.MethodPost, "/api/v1/community/request/not-a-uuid", nil, &sender)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAcceptFriendRequestMissing(t *testing.T) {
	f := newFixture(t)
	receiver := uuid.New()
	f.friends.accept = func(ctx context.Context, sender, recv uuid.UUID) error {
		assert.Equal(t, receiver, recv)
		return service.ErrNoSuchRequest
	}

	resp := f.request(t, http.MethodPost, "/api/v1/community/accept/"+uuid.NewString(), nil, &receiver)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDiscoverListsUsers(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.list = func(ctx context.Context, id uuid.UUID) ([]models.UserSummary, error) {
		return []models.UserSummary{{ID: uuid.New(), Firstname: "Meera"}}, nil
	}

	resp := f.request(t, http.MethodGet, "/api/v1/community/discover", nil, &userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]models.UserSummary](t, resp)
	assert.Len(t, body["users"], 1)
}

func TestGetChatEmptyConversation(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.getConversation = func(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
		return []models.Message{}, nil
	}

	resp := f.request(t, http.MethodGet, "/api/v1/community/chat/"+uuid.NewString(), nil, &userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]models.Message](t, resp)
	assert.NotNil(t, body["messages"])
	assert.Empty(t, body["messages"])
}

func TestSendMessageEmptyText(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.chats.appendFn = func(ctx context.Context, sender, other uuid.UUID, text string) error {
		return service.ErrEmptyMessage
	}

	resp := f.request(t, http.MethodPost, "/api/v1/community/chat/"+uuid.NewString(), models.MessageRequest{Text: "   "}, &userID)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendMessageToSelf(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.chats.appendFn = func(ctx context.Context, sender, other uuid.UUID, text string) error {
		return service.ErrSelfMessage
	}

	resp := f.request(t, http.MethodPost, "/api/v1/community/chat/"+userID.String(), models.MessageRequest{Text: "hi"}, &userID)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendMessageAck(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	other := uuid.New()
	f.chats.appendFn = func(ctx context.Context, sender, peer uuid.UUID, text string) error {
		assert.Equal(t, userID, sender)
		assert.Equal(t, other, peer)
		assert.Equal(t, "hello there", text)
		return nil
	}

	resp := f.request(t, http.MethodPost, "/api/v1/community/chat/"+other.String(), models.MessageRequest{Text: "hello there"}, &userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "sent", body["message"])
}

func TestMeReturnsProfile(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.dir.getUser = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return &models.User{ID: id, Firstname: "Riya", Email: "riya@example.com"}, nil
	}

	resp := f.request(t, http.MethodGet, "/api/v1/user/me", nil, &userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]models.User](t, resp)
	assert.Equal(t, userID, body["user"].ID)
}

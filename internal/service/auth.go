package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindhaven/mindhaven/internal/auth"
	"github.com/mindhaven/mindhaven/internal/models"
	"github.com/mindhaven/mindhaven/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidSignup      = errors.New("firstname, email and a password of at least 6 characters are required")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// New wallets start with a small randomized balance so the transfer flow is
// usable straight after signup.
const (
	minStartingBalance = 100
	maxStartingBalance = 1_000_000
)

// AuthService creates identities and issues tokens. Signup writes the user
// and its wallet in one transaction so no identity exists without an account.
type AuthService struct {
	db     *pgxpool.Pool
	store  *store.Store
	tokens *auth.JWTManager
}

func NewAuthService(db *pgxpool.Pool, st *store.Store, tokens *auth.JWTManager) *AuthService {
	return &AuthService{db: db, store: st, tokens: tokens}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Lastname = strings.TrimSpace(req.Lastname)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Firstname == "" || !strings.Contains(req.Email, "@") || len(req.Password) < 6 {
		return "", ErrInvalidSignup
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	userID := uuid.New()
	_, err = tx.Exec(ctx,
		"INSERT INTO users (id, firstname, lastname, email, password_hash) VALUES ($1, $2, $3, $4, $5)",
		userID, req.Firstname, req.Lastname, req.Email, string(hash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("user insert failed: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO accounts (user_id, balance) VALUES ($1, $2)",
		userID, startingBalance())
	if err != nil {
		return "", fmt.Errorf("account insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("tx commit failed: %w", err)
	}

	return s.tokens.Generate(userID)
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Generate(user.ID)
}

func startingBalance() int64 {
	return minStartingBalance + rand.Int64N(maxStartingBalance-minStartingBalance+1)
}

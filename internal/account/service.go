package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"throwerx-backend/internal/storage"
)

var (
	ErrMissingFields      = errors.New("username and password are required")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// tokenBytes gives 128 bits of entropy, hex encoded to 32 characters.
const tokenBytes = 16

// Service owns account creation, credential verification, and opaque token
// issuance. It keeps a token-to-username index alongside the record store so
// bearer lookups never scan the full account map.
type Service struct {
	records *storage.Synced

	mu     sync.RWMutex
	tokens map[string]string
}

// NewService builds the token index from the current store contents, so
// tokens issued by a previous process keep resolving after a restart.
func NewService(ctx context.Context, records *storage.Synced) (*Service, error) {
	s := &Service{
		records: records,
		tokens:  make(map[string]string),
	}

	err := records.View(ctx, func(accounts storage.Accounts) error {
		for username, acc := range accounts {
			s.tokens[acc.Token] = username
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build token index: %w", err)
	}

	return s, nil
}

// Register creates an account with a hashed password, a fresh bearer token,
// and default progress. The token is not returned; clients log in for it.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	err = s.records.Update(ctx, func(accounts storage.Accounts) error {
		if _, exists := accounts[username]; exists {
			return ErrUsernameTaken
		}

		accounts[username] = storage.Account{
			PasswordHash: string(hash),
			Token:        token,
			PlayerData:   storage.DefaultProgress(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tokens[token] = username
	s.mu.Unlock()

	return nil
}

// PlayerData is the login payload: the username merged with the account's
// current progress record.
type PlayerData struct {
	Username string `json:"username"`
	storage.Progress
}

type LoginResult struct {
	Token  string
	Player PlayerData
}

// Login verifies the password against the stored bcrypt hash and returns the
// account's existing token. Repeated logins return the identical token; the
// failure path never distinguishes an unknown username from a bad password.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var result LoginResult

	err := s.records.View(ctx, func(accounts storage.Accounts) error {
		acc, exists := accounts[username]
		if !exists {
			return ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
			return ErrInvalidCredentials
		}

		result = LoginResult{
			Token: acc.Token,
			Player: PlayerData{
				Username: username,
				Progress: acc.PlayerData,
			},
		}
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}

	return result, nil
}

// ResolveToken returns the username a bearer token was issued to.
func (s *Service) ResolveToken(token string) (string, error) {
	s.mu.RLock()
	username, exists := s.tokens[token]
	s.mu.RUnlock()

	if !exists {
		return "", ErrInvalidToken
	}

	return username, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

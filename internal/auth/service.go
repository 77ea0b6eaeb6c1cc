// Package auth implements email/password accounts with bearer-token
// login sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const tokenLength = 35

var (
	// ErrUserExists is returned by SignUp for an already-registered email.
	ErrUserExists = errors.New("user already exists")
	// ErrUnknownUser is returned when no account matches the email.
	ErrUnknownUser = errors.New("unknown user")
	// ErrWrongPassword is returned when the password does not match.
	ErrWrongPassword = errors.New("wrong password")
	// ErrNotSignedIn is returned for missing, expired, or revoked tokens.
	ErrNotSignedIn = errors.New("not signed in")
)

// UserStore persists accounts. Implemented by both the SQLite and
// Postgres backends.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) error
	PasswordHash(ctx context.Context, email string) (string, error)
}

// Identity is the signed-in user as seen by handlers.
type Identity struct {
	Email string `json:"email"`
}

type loginSession struct {
	email     string
	createdAt time.Time
}

// Service issues and checks login tokens. Tokens live in memory with a
// TTL; accounts live in the UserStore.
type Service struct {
	store UserStore
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]loginSession

	now func() time.Time
	// RandStringFunc generates session tokens; injectable for tests.
	RandStringFunc func(n int) (string, error)
}

// NewService creates a Service with the given token TTL.
func NewService(store UserStore, ttl time.Duration) *Service {
	return &Service{
		store:          store,
		ttl:            ttl,
		sessions:       make(map[string]loginSession),
		now:            time.Now,
		RandStringFunc: generateRandomString,
	}
}

// SignUp registers a new account and signs it in, returning a token.
func (s *Service) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	if len(password) < 6 {
		return "", errors.New("password must be at least 6 characters")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	if err := s.store.CreateUser(ctx, email, hash); err != nil {
		return "", err
	}
	return s.issueToken(email)
}

// SignIn checks the password and returns a fresh token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	hash, err := s.store.PasswordHash(ctx, email)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrWrongPassword
	}
	return s.issueToken(email)
}

// SignOut revokes the token. Revoking an unknown token is a no-op.
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// CurrentUser resolves a token to an identity, enforcing the TTL.
// Expired tokens are removed.
func (s *Service) CurrentUser(token string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return Identity{}, ErrNotSignedIn
	}
	if s.now().Sub(sess.createdAt) > s.ttl {
		delete(s.sessions, token)
		return Identity{}, ErrNotSignedIn
	}
	return Identity{Email: sess.email}, nil
}

func (s *Service) issueToken(email string) (string, error) {
	token, err := s.RandStringFunc(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = loginSession{email: email, createdAt: s.now()}
	return token, nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(bytes), nil
}

func generateRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:n], nil
}

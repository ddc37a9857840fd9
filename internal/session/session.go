// Package session tracks issued login tokens for the life of the process.
// Tokens are opaque to clients: a signed envelope around a random ID, useful
// only as a key into the server-side table. Restarting the process empties
// the table, so every outstanding token dies with it.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the server-side state behind one issued token.
type Session struct {
	Token            string
	UserID           string
	PasswordVerified bool
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// Store issues, resolves, and revokes session tokens.
type Store interface {
	// Issue creates a session for the user and returns its token. verified
	// records whether the site password gate is already cleared.
	Issue(userID string, verified bool) (string, error)
	// Resolve returns the live session behind token, or false when the
	// token is unknown, expired, or fails verification.
	Resolve(token string) (*Session, bool)
	// MarkVerified flips the password gate flag on a live session.
	MarkVerified(token string) bool
	// Revoke drops the session behind token. Unknown tokens are ignored.
	Revoke(token string)
	// RevokeUser drops every session held for the user.
	RevokeUser(userID string)
}

// MemoryStore keeps sessions in process memory, keyed by token.
type MemoryStore struct {
	secret   []byte
	lifetime time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty session table. Tokens are signed with
// secret; sessions expire lifetime after issue.
func NewMemoryStore(secret string, lifetime time.Duration) *MemoryStore {
	return &MemoryStore{
		secret:   []byte(secret),
		lifetime: lifetime,
		sessions: make(map[string]*Session),
	}
}

// Issue creates a session for the user and returns its token.
func (s *MemoryStore) Issue(userID string, verified bool) (string, error) {
	token, err := s.signToken(userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.sessions[token] = &Session{
		Token:            token,
		UserID:           userID,
		PasswordVerified: verified,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.lifetime),
	}
	s.mu.Unlock()
	return token, nil
}

// Resolve returns the session behind token. The signature is checked before
// the table lookup, so tampered tokens never reach the table. Expired
// sessions are dropped on sight.
func (s *MemoryStore) Resolve(token string) (*Session, bool) {
	if !s.verify(token) {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if sess.IsExpired() {
		delete(s.sessions, token)
		return nil, false
	}
	snapshot := *sess
	return &snapshot, true
}

// MarkVerified flips the password gate flag on a live session.
func (s *MemoryStore) MarkVerified(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || sess.IsExpired() {
		return false
	}
	sess.PasswordVerified = true
	return true
}

// Revoke drops the session behind token.
func (s *MemoryStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// RevokeUser drops every session held for the user.
func (s *MemoryStore) RevokeUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
}

// Len reports the number of sessions currently held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) signToken(userID string) (string, error) {
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	claims := jwt.RegisteredClaims{
		ID:       hex.EncodeToString(id),
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func (s *MemoryStore) verify(token string) bool {
	_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	return err == nil
}

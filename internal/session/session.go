// Package session tracks the authenticated identity. The active session is
// mirrored to the persistent store under its own key: written whole on
// login, removed on logout. Everything outside this package treats the
// session as read-only context.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"autotrack/internal/models"
	"autotrack/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

// Credential is one of the fixed login pairs configured at startup. The
// password is held as a bcrypt hash; there is no lockout or rate limiting.
type Credential struct {
	Username     string
	PasswordHash string
	Role         models.UserRole
}

// NewCredential hashes password and binds it to username and role.
func NewCredential(username, password string, role models.UserRole) (Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to hash password for %s: %w", username, err)
	}
	return Credential{Username: username, PasswordHash: string(hash), Role: role}, nil
}

type Manager struct {
	kv    storage.KV
	creds []Credential
}

func NewManager(kv storage.KV, creds []Credential) *Manager {
	return &Manager{kv: kv, creds: creds}
}

// Login checks username/password against the configured credentials. On
// success the session is mirrored to the store and returned; on failure ok
// is false and nothing changes.
func (m *Manager) Login(ctx context.Context, username, password string) (models.Session, bool, error) {
	for _, c := range m.creds {
		if c.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
			break
		}
		sess := models.Session{Username: c.Username, Role: c.Role}
		raw, err := json.Marshal(sess)
		if err != nil {
			return models.Session{}, false, fmt.Errorf("failed to encode session: %w", err)
		}
		if err := m.kv.Set(ctx, storage.KeyUser, raw); err != nil {
			return models.Session{}, false, fmt.Errorf("failed to persist session: %w", err)
		}
		return sess, true, nil
	}
	return models.Session{}, false, nil
}

// Logout clears the persisted session mirror entirely.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.kv.Delete(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Current returns the persisted session, if any.
func (m *Manager) Current(ctx context.Context) (models.Session, bool, error) {
	raw, err := m.kv.Get(ctx, storage.KeyUser)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	if raw == nil {
		return models.Session{}, false, nil
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	return sess, true, nil
}

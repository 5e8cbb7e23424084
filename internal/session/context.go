// Package session holds the process-wide authentication and browsing-session state.
// It is created once at start-up, handed to whoever needs it, and persisted in a small
// BoltDB file so a login survives restarts.
package session

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/comigor/dermachat-go/internal/logger"
)

// User is the signed-in account as returned by the auth endpoints.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Gender           string `json:"gender,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	ProfileCompleted bool   `json:"profile_completed,omitempty"`
}

// DisplayName is "First Last", falling back to the email.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

const bucketName = "local"

const (
	keyToken        = "token"
	keyLegacyToken  = "auth_token"
	keyRefreshToken = "refreshToken"
	keyUser         = "user"
	keySessionID    = "session_id"
)

// Context is the shared credential and session store.
type Context struct {
	db *bolt.DB

	mu        sync.RWMutex
	token     string
	refresh   string
	user      *User
	sessionID string
}

// Open opens (creating if needed) the store at path, migrates legacy keys and loads
// the current values.
func Open(path string) (*Context, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	c := &Context{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := c.load(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// migrate copies a token stored under the old "auth_token" key to "token" and adds an
// empty refresh token placeholder. Running it twice changes nothing.
func (c *Context) migrate() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		legacy := b.Get([]byte(keyLegacyToken))
		if legacy == nil {
			return nil
		}
		if b.Get([]byte(keyToken)) == nil {
			if err := b.Put([]byte(keyToken), legacy); err != nil {
				return fmt.Errorf("migrate token: %w", err)
			}
			logger.L.Debug("migrated auth_token to token format")
		}
		if b.Get([]byte(keyRefreshToken)) == nil {
			if err := b.Put([]byte(keyRefreshToken), []byte{}); err != nil {
				return fmt.Errorf("add refresh token placeholder: %w", err)
			}
			logger.L.Debug("added placeholder refreshToken")
		}
		return nil
	})
}

func (c *Context) load() error {
	return c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		c.token = string(b.Get([]byte(keyToken)))
		c.refresh = string(b.Get([]byte(keyRefreshToken)))
		c.sessionID = string(b.Get([]byte(keySessionID)))
		if raw := b.Get([]byte(keyUser)); raw != nil {
			var u User
			if err := json.Unmarshal(raw, &u); err != nil {
				logger.L.Warn("stored user is unreadable; ignoring", "error", err)
				return nil
			}
			c.user = &u
		}
		return nil
	})
}

func (c *Context) put(kv map[string][]byte, del ...string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		for k, v := range kv {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		for _, k := range del {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Token returns the bearer token, or "" when signed out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// RefreshToken returns the stored refresh token (possibly an empty placeholder).
func (c *Context) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

// User returns a copy of the stored user, or nil.
func (c *Context) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// IsAuthenticated reports whether a token is present.
func (c *Context) IsAuthenticated() bool {
	return c.Token() != ""
}

// SetCredentials stores the token and user after login, registration or refresh.
func (c *Context) SetCredentials(token string, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.put(map[string][]byte{keyToken: []byte(token), keyUser: raw}, keyLegacyToken); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	c.token = token
	c.user = &user
	return nil
}

// SetUser replaces the stored user, keeping the token.
func (c *Context) SetUser(user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.put(map[string][]byte{keyUser: raw}); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	c.user = &user
	return nil
}

// ClearCredentials forgets the token and user. Used on logout and on 401.
func (c *Context) ClearCredentials() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.user = nil
	if err := c.put(nil, keyToken, keyLegacyToken, keyUser); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// SessionID returns the browsing-session id, creating and persisting one on first use.
func (c *Context) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != "" {
		return c.sessionID
	}
	id := NewSessionID(time.Now())
	if err := c.put(map[string][]byte{keySessionID: []byte(id)}); err != nil {
		logger.L.Warn("failed to persist session id", "error", err)
	}
	c.sessionID = id
	return id
}

// ClearSession drops the browsing-session id so the next call starts a new one.
func (c *Context) ClearSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = ""
	if err := c.put(nil, keySessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *Context) Close() error {
	return c.db.Close()
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID builds an id of the form session_<unix millis>_<9 base36 chars>.
func NewSessionID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return "session_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

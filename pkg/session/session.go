// Package session persists interactive view state between commands.
//
// A [Session] ties a scene file to a captured [view.State]: pinned roots,
// expansion flags, drag offsets, focus and draw toggles, all by handle. The
// CLI's session subcommands and the HTTP server load a session, apply it to
// a freshly built view, run one event and store the captured result.
//
// # Backends
//
//   - [MemoryStore]: in-process map, used by tests and a standalone server
//   - [FileStore]: one JSON file per session (CLI default)
//   - [RedisStore]: shared store with native expiry
//   - [MongoStore]: durable store with a TTL index
//
// Use [Open] to construct the backend named in the config:
//
//	store, err := session.Open(ctx, session.Options{Backend: "file"})
//	sess, err := session.New("scenes/level1.yaml", session.DefaultTTL)
//	err = store.Set(ctx, sess)
package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/scenemap/pkg/view"
)

// DefaultTTL is how long an untouched session lives.
const DefaultTTL = 24 * time.Hour

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("session expired")
)

// Session stores the view state of one scene.
type Session struct {
	ID        string     `json:"id" bson:"_id"`
	Scene     string     `json:"scene" bson:"scene"`
	SceneHash string     `json:"scene_hash,omitempty" bson:"scene_hash,omitempty"`
	State     view.State `json:"state" bson:"state"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at" bson:"expires_at"`
}

// New creates a session for a scene file with a random UUID.
func New(scene string, ttl time.Duration) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id.String(),
		Scene:     scene,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch records a state change and extends the expiry by ttl.
func (s *Session) Touch(state view.State, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.State = state
	s.UpdatedAt = time.Now().UTC()
	s.ExpiresAt = s.UpdatedAt.Add(ttl)
}

// clone returns a deep copy of s.
func (s *Session) clone() *Session {
	c := *s
	c.State.Pinned = slices.Clone(s.State.Pinned)
	c.State.Expanded = slices.Clone(s.State.Expanded)
	c.State.Offsets = maps.Clone(s.State.Offsets)
	return &c
}

// ttl returns the remaining lifetime, never less than a second.
func (s *Session) ttl() time.Duration {
	return max(time.Until(s.ExpiresAt), time.Second)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist and ErrExpired if it
	// exists but has expired; expired sessions are removed.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any session with the same ID.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns every live session, most recently updated first.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions (may be a no-op for backends that
	// expire natively).
	Cleanup(ctx context.Context) error

	Close() error
}

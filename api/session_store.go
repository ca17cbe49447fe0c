package api

import "time"

// Session is the server-side record behind one issued token.
type Session struct {
	Token     string    `json:"session_token"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore owns the live sessions. Implementations must be safe for
// concurrent callers. Sessions have no expiry: they live until explicit
// deletion or process restart.
type SessionStore interface {
	// Create generates an unguessable token, inserts a session record for
	// it, and returns the token.
	Create(isAdmin bool) (string, error)
	// Get retrieves a session by token.
	Get(token string) (Session, bool)
	// Delete removes a session by token. Deleting an unknown token is a
	// no-op.
	Delete(token string)
}

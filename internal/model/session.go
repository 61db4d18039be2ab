package model

import "time"

// Session is a signed-in browser. Timestamps are unix milliseconds so the
// same column type works on every supported engine.
type Session struct {
	ID        string `db:"id,primaryKey"`
	DriverID  int    `db:"driver_id"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return now.UTC().UnixMilli() >= s.ExpiresAt
}

// SessionValue is one key/value entry of a session's state.
type SessionValue struct {
	SessionID string `db:"session_id,primaryKey"`
	Key       string `db:"name"`
	Value     string `db:"value"`
}

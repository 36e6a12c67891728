package domain

import "time"

// Session is a server-side login session. The cookie handed to the client
// carries a signed token referencing ID; deleting the row revokes the
// session immediately regardless of the token's own expiry.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

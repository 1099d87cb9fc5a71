package models

import "time"

// Session binds an opaque identifier to a user until Expires.
type Session struct {
	ID      string
	UserID  int64
	Expires time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}

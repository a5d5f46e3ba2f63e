package domain

import (
	"context"
	"time"
)

// Session is a server-tracked authenticated state for one user. Token is
// the opaque bearer value carried in the session cookie. Expiry is
// rolling: ExpiresAt is slid a full lifetime forward on activity, at most
// once per sliding interval, so a session only lapses after a lifetime of
// inactivity.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	// Touch updates the session's expiry and updated-at timestamp.
	Touch(ctx context.Context, id int64, updatedAt, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteExpired removes all sessions expired as of the given time and
	// returns the number deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

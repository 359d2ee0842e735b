package sessions

import (
	"context"
	"time"
)

// Repo defines session storage. Get on an unknown token returns errors.ErrSessionNotFound.
type Repo interface {
	Upsert(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

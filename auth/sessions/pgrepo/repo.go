// Package pgrepo is the PostgreSQL implementation of sessions.Repo.
package pgrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-voice-server/auth/sessions"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
)

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Upsert(ctx context.Context, session *sessions.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.Token == "" {
		return errors.New("session token is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, id, user_id, expires_at, created_at, updated_at, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		session.Token, session.ID, session.UserID, session.ExpiresAt.UTC(), session.CreatedAt.UTC(),
		session.UpdatedAt.UTC(), session.IPAddress, session.UserAgent,
	)
	return wrap("Upsert", err)
}

func (r *Repo) Get(ctx context.Context, token string) (*sessions.Session, error) {
	if token == "" {
		return nil, apperrors.ErrSessionNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT token, id, user_id, expires_at, created_at, updated_at, ip_address, user_agent
		 FROM sessions WHERE token = $1`, token)

	var s sessions.Session
	err := row.Scan(&s.Token, &s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt, &s.IPAddress, &s.UserAgent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, wrap("Get", err)
	}
	return &s, nil
}

// Delete is idempotent.
func (r *Repo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return wrap("Delete", err)
}

func (r *Repo) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return wrap("DeleteForUser", err)
}

func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, wrap("DeleteExpired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("DeleteExpired", err)
	}
	return int(n), nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[sessions pgrepo %s] %w", op, err)
}

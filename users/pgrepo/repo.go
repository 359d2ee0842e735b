// Package pgrepo is the PostgreSQL implementation of users.UserRepo. The schema is
// migrated by internal/database.
package pgrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-voice-server/internal/database"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
)

var _ users.UserRepo = (*Repo)(nil)

type Repo struct {
	db      *sql.DB
	nowTime func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, nowTime: time.Now}
}

func (r *Repo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormaliseEmail(user.Email)
	now := r.nowTime().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, image, password_hash, google_subject, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Name, user.Image, user.PasswordHash, nullable(user.GoogleSubject),
		user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	)
	return mapError("Create", err)
}

func (r *Repo) Update(ctx context.Context, user *users.User) error {
	user.Email = users.NormaliseEmail(user.Email)
	user.UpdatedAt = r.nowTime().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, name = $3, image = $4, password_hash = $5, google_subject = $6,
		 email_verified = $7, updated_at = $8 WHERE id = $1`,
		user.ID, user.Email, user.Name, user.Image, user.PasswordHash, nullable(user.GoogleSubject),
		user.EmailVerified, user.UpdatedAt,
	)
	if err != nil {
		return mapError("Update", err)
	}
	return requireRow(res)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError("Delete", err)
	}
	return requireRow(res)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, "email", users.NormaliseEmail(email))
}

func (r *Repo) GetByGoogleSubject(ctx context.Context, subject string) (*users.User, error) {
	return r.getOne(ctx, "google_subject", subject)
}

// getOne is only called with fixed column names.
func (r *Repo) getOne(ctx context.Context, column, value string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, image, password_hash, COALESCE(google_subject, ''), email_verified, created_at, updated_at
		 FROM users WHERE `+column+` = $1`, value)

	var u users.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.PasswordHash, &u.GoogleSubject,
		&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError("Get", err)
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == database.UniqueViolation {
		return apperrors.ErrUserExists
	}
	return fmt.Errorf("[pgrepo %s] %w", op, err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

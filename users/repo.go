package users

import "context"

// UserRepo persists users. Lookups that find nothing return errors.ErrUserNotFound;
// Create on a taken email returns errors.ErrUserExists.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByGoogleSubject(ctx context.Context, subject string) (*User, error)
}

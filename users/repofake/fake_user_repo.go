package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users     map[string]*users.User
	emailIds  map[string]string // email to user id
	googleIds map[string]string // google subject to user id
	lock      sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[string]*users.User),
		emailIds:  make(map[string]string),
		googleIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user.Email = users.NormaliseEmail(user.Email)
	if _, ok := ur.emailIds[user.Email]; ok {
		return apperrors.ErrUserExists
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.store(user)
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.Email = users.NormaliseEmail(user.Email)
	if id, ok := ur.emailIds[user.Email]; ok && id != user.ID {
		return apperrors.ErrUserExists
	}
	delete(ur.emailIds, existing.Email)
	delete(ur.googleIds, existing.GoogleSubject)
	ur.store(user)
	return nil
}

func (ur *FakeUserRepo) store(user *users.User) {
	ur.users[user.ID] = user.Clone()
	ur.emailIds[user.Email] = user.ID
	if user.GoogleSubject != "" {
		ur.googleIds[user.GoogleSubject] = user.ID
	}
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	delete(ur.emailIds, user.Email)
	delete(ur.googleIds, user.GoogleSubject)
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	return ur.lookup(ur.emailIds, users.NormaliseEmail(email))
}

func (ur *FakeUserRepo) GetByGoogleSubject(_ context.Context, subject string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	return ur.lookup(ur.googleIds, subject)
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (ur *FakeUserRepo) lookup(index map[string]string, key string) (*users.User, error) {
	id, ok := index[key]
	if !ok || key == "" {
		return nil, apperrors.ErrUserNotFound
	}
	return ur.users[id].Clone(), nil
}

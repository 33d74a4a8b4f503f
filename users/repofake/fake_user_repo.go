// Package repofake provides an in-memory users.Store for tests.
package repofake

import (
	"context"
	"sync"

	"github.com/digigoat/digigoat-server/users"
)

type FakeUserRepo struct {
	mu     sync.RWMutex
	byID   map[int64]*users.User
	nextID int64

	// FailWith, when set, is returned by every method. Used to exercise
	// store-failure paths.
	FailWith error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		byID:   make(map[int64]*users.User),
		nextID: 1,
	}
}

// Add seeds a user directly, assigning an ID when none is set.
func (f *FakeUserRepo) Add(u users.User) *users.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	} else if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	stored := u
	f.byID[stored.ID] = &stored
	return &stored
}

func (f *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, users.NotFoundErr
}

func (f *FakeUserRepo) FindByID(_ context.Context, id int64) (*users.User, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, users.NotFoundErr
	}
	copied := *u
	return &copied, nil
}

func (f *FakeUserRepo) Insert(_ context.Context, nu users.NewUser) (int64, error) {
	if f.FailWith != nil {
		return 0, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == nu.Email {
			return 0, users.DuplicateEmailErr
		}
	}
	id := f.nextID
	f.nextID++
	f.byID[id] = &users.User{
		ID:           id,
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		PhoneNumber:  nu.PhoneNumber,
		GroupID:      nu.GroupID,
		Verified:     true,
		Active:       true,
	}
	return id, nil
}

func (f *FakeUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return users.NotFoundErr
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *FakeUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return users.NotFoundErr
	}
	u.Active = active
	return nil
}

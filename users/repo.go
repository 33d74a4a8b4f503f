package users

import (
	"context"

	"github.com/pkg/errors"
)

var (
	NotFoundErr       = errors.New("user not found")
	DuplicateEmailErr = errors.New("email already taken")
)

// NewUser is the insert payload for a registration. Accounts are created
// verified and active because registration already proved email ownership.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	PhoneNumber  string
	GroupID      int
}

// Store is the account repository.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Insert(ctx context.Context, nu NewUser) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// Package postgres implements users.Store on a Postgres database.
package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/digigoat/digigoat-server/users"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[Open] sql.Open")
	}
	if err := db.Ping(); err != nil {
		return db, errors.Wrap(err, "[Open] ping")
	}
	return db, nil
}

const selectColumns = `id, username, email, password, phone_number, group_id, verified, active`

func (s *Store) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*users.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) Insert(ctx context.Context, nu users.NewUser) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password, phone_number, group_id, verified, active)
		 VALUES ($1, $2, $3, $4, $5, 1, 1)
		 RETURNING id`,
		nu.Username, nu.Email, nu.PasswordHash, nu.PhoneNumber, nu.GroupID).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, users.DuplicateEmailErr
		}
		return 0, errors.Wrap(err, "[Insert]")
	}
	return id, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return errors.Wrap(err, "[UpdatePassword]")
	}
	return checkAffected(res)
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET active = $1 WHERE id = $2`, boolToFlag(active), id)
	if err != nil {
		return errors.Wrap(err, "[SetActive]")
	}
	return checkAffected(res)
}

func scanUser(row *sql.Row) (*users.User, error) {
	var (
		u        users.User
		phone    sql.NullString
		verified int
		active   int
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &phone, &u.GroupID, &verified, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.NotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[scanUser]")
	}
	u.PhoneNumber = phone.String
	u.Verified = verified == 1
	u.Active = active == 1
	return &u, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[checkAffected]")
	}
	if n == 0 {
		return users.NotFoundErr
	}
	return nil
}

func boolToFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

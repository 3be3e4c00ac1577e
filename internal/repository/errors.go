package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicate       = errors.New("duplicate record")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrGroupNotFound   = errors.New("study group not found")
	// ErrNoChange is returned when a conditional update matched the row but
	// its guard rejected the change.
	ErrNoChange = errors.New("no change applied")
	// ErrOverCapacity is returned when an update would leave a group with
	// more members than its max_members.
	ErrOverCapacity = errors.New("group over capacity")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

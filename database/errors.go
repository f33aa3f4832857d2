package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

// WrapNotFound converts the driver's no-rows error into ErrNotFound so
// handlers can map it to a 404 without importing database/sql.
func WrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// IsUniqueViolation reports whether err is a postgres unique-index
// violation (duplicate business code, email, ...).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

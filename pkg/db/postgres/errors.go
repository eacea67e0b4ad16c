package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	NonExistingIntKey     = -1
	DuplicateKeyViolation = -2
)

var (
	ErrDuplicateCode = "23505"
	ErrDuplicateMsg  = "duplicate key violation"

	ErrDuplicateDatabaseCode = "42P04"
)

func IsDuplicateKeyErr(err error) bool {
	var pgErr *pq.Error
	if err != nil {
		if errors.As(err, &pgErr) {
			return pgErr.Code == pq.ErrorCode(ErrDuplicateCode)
		}
	}
	return false
}

func IsDuplicateDatabaseErr(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pq.ErrorCode(ErrDuplicateDatabaseCode)
	}
	return false
}

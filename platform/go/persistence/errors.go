package persistence

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store-level sentinels. Domain repos translate these into service errors.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a uniqueness violation (customer id, mobile
	// number, or a second open transfer request).
	ErrDuplicate = errors.New("duplicate record")

	// ErrAmbiguousMatch indicates an identifier lookup matched more than one
	// row. Identifiers carry unique indexes, so this signals corrupted data
	// and is never resolved by picking an arbitrary row.
	ErrAmbiguousMatch = errors.New("ambiguous identifier match")
)

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsUnavailable reports whether err looks like a transient store failure
// (connection loss, timeout) that the caller may retry with backoff.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

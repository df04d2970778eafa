package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransactionConflict indicates a SurrealDB transaction conflict.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrNotFound indicates the requested run does not exist.
	ErrNotFound = errors.New("run not found")
)

// wrapQueryError wraps known SurrealDB query errors with a sentinel.
// Returns the original error otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) && strings.Contains(queryErr.Message, "Transaction conflict") {
		return fmt.Errorf("%w: %s", ErrTransactionConflict, queryErr.Message)
	}

	return err
}

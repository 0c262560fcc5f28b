package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// constraintViolation classifies driver errors. constraint is the postgres constraint
// name, or the sqlite message, which lists the offending columns.
func constraintViolation(err error) (unique, foreignKey bool, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return true, false, pqErr.Constraint
		case "23503":
			return false, true, pqErr.Constraint
		}
		return false, false, ""
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		msg := liteErr.Error()
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true, false, msg
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return false, true, msg
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "FOREIGN KEY"), msg
		}
	}
	return false, false, ""
}

func isUniqueViolation(err error) bool {
	unique, _, _ := constraintViolation(err)
	return unique
}

func isForeignKeyViolation(err error) bool {
	_, fk, _ := constraintViolation(err)
	return fk
}

// inPlaceholders returns "?, ?, ?" for n arguments.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

package db

import "strings"

// IsUniqueViolation reports whether the error references a unique constraint
// violation. The sqlite message form is matched so repo tests behave like
// Postgres.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

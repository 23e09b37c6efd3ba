package db

import "strings"

// IsUniqueViolation reports whether err references a Postgres unique
// constraint violation. A constraint name narrows the match to that
// specific index.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

package helpers

import "strings"

// Returning builds a "RETURNING a, b, c" suffix for squirrel builders.
func Returning(columns []string) string {
	return "RETURNING " + strings.Join(columns, ", ")
}

// NilIfEmpty converts a blank string into a nil pointer so optional columns store NULL.
func NilIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

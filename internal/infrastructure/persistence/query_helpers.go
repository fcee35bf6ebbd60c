package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// inClauseChunkSize bounds the number of bind variables in a single IN (...) list
const inClauseChunkSize = 500

// likeEscaper escapes LIKE wildcards so search terms match literally (ESCAPE '\')
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns a lower-cased substring pattern for LOWER(col) LIKE ? ESCAPE '\'
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// chunk splits items into slices of at most size elements
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size:size])
	}
	return append(chunks, items)
}

// isDuplicateKeyError reports whether err is a unique constraint violation.
// Translated errors are checked first; the message checks cover drivers without translation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}

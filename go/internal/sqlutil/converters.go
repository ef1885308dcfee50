package sqlutil

import "database/sql"

// Helpers for the nullable columns the repositories touch. The domain types
// use zero values where the schema uses NULL.

// NullString maps an empty string to SQL NULL.
func NullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

// StringOrEmpty maps SQL NULL to an empty string.
func StringOrEmpty(val sql.NullString) string {
	if !val.Valid {
		return ""
	}
	return val.String
}

// IntOrZero maps SQL NULL to zero.
func IntOrZero(val sql.NullInt32) int {
	if !val.Valid {
		return 0
	}
	return int(val.Int32)
}

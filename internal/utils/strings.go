package utils

import "strings"

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// This function is used throughout the codebase to parse comma-separated
// standards and competitor ID values stored in the database.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// JoinCSV is the inverse of ParseCSV: it joins values into the canonical
// comma-separated form stored in TEXT columns. Empty values are dropped.
func JoinCSV(values []string) string {
	var kept []string
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ",")
}

package vault

import "strings"

// Normalize produces the canonical form used for duplicate comparison:
// leading and trailing whitespace removed and every internal run of
// whitespace collapsed to a single space. It never touches the stored
// body, which keeps the submitter's internal spacing.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

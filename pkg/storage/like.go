package storage

import "strings"

// LikeEscape is the escape character used by EscapeLike.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes SQL LIKE wildcards in s so it matches literally, and
// wraps it in % for a substring match. Queries using it must declare
// ESCAPE '\' (PostgreSQL uses it by default).
func EscapeLike(s string) string {
	return "%" + likeReplacer.Replace(s) + "%"
}

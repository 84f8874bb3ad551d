package statement

import (
	"regexp"

	"github.com/xraph/steward/entity"
)

// secretLiteral matches the password literal of an IDENTIFIED clause,
// with or without an explicit method.
var secretLiteral = regexp.MustCompile(`(?i)(\bIDENTIFIED\s+(?:WITH\s+\w+\s+)?BY\s+)'(?:[^'\\]|\\.)*'`)

// Redact masks password literals in stmt. Statements that carry no
// secret are returned unchanged.
func Redact(stmt string) string {
	return secretLiteral.ReplaceAllString(stmt, "${1}'"+entity.Redacted+"'")
}

// RedactAll returns a masked copy of stmts.
func RedactAll(stmts []string) []string {
	if stmts == nil {
		return nil
	}
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = Redact(s)
	}
	return out
}

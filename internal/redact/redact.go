// Package redact strips sensitive information from strings before they are
// logged. Error values passing through this service can carry database
// connection strings, SQL fragments and file paths; these must never reach
// log output verbatim.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
)

// Precompiled patterns, applied in order.
var rules = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	// Database connection strings with embedded credentials
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`), RedactedCredentialPlaceholder},

	// Bearer tokens (standard three-part base64url JWT format)
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedTokenPlaceholder},

	// Secrets in key=value form
	{regexp.MustCompile(`(?i)(password|secret|token|api[_-]?key)([=:]\s*)\S{3,}`), RedactedCredentialPlaceholder},

	// SQL statements leaking through driver errors
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)\s[\s\w,.*()='"$]+\b(FROM|INTO|SET|WHERE)\b[\s\w,.*()='"$]*`), RedactedSQLPlaceholder},

	// Filesystem paths
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, rule := range rules {
		result = rule.pattern.ReplaceAllString(result, rule.placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

package logging

import "regexp"

// Patterns for credentials that must never reach the log output: the shared
// site passphrases, JWT material and bearer headers.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),
	regexp.MustCompile(`(?i)(passphrase|secret|token|password)[=:]\s*["']?([^\s"']+)["']?`),
	regexp.MustCompile(`\$2[aby]\$\d{2}\$[./a-zA-Z0-9]{53}`), // bcrypt hashes
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces credential material in a string before it is logged.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

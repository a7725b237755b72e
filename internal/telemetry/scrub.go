// scrub.go privacy scrubbing for outgoing telemetry text
package telemetry

import "regexp"

// Scrubbing patterns, applied in order. URL queries go first so
// credential-bearing query strings are gone before the generic patterns
// run.
var scrubPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(https?://[^?\s]+)\?\S*`), "$1?[REDACTED]"},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|auth|secret|password)[=:]\S+`), "[CREDENTIAL_REDACTED]"},
	{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "[EMAIL_REDACTED]"},
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?::\d+)?\b`), "[IP_REDACTED]"},
	{regexp.MustCompile(`(/home/|/Users/)[^/\s]+`), "$1[USER]"},
	{regexp.MustCompile(`(?i)(C:\\Users\\)[^\\\s]+`), "$1[USER]"},
	{regexp.MustCompile(`[0-9a-fA-F]{32,}`), "[HEX_REDACTED]"},
}

// ScrubMessage removes identifying material from free-form text before
// it leaves the process: credentials, email addresses, IPs, user paths
// and key-like hex strings. Registered with the errors package at
// startup so every reported error message passes through it.
func ScrubMessage(message string) string {
	for _, p := range scrubPatterns {
		message = p.re.ReplaceAllString(message, p.replacement)
	}
	return message
}

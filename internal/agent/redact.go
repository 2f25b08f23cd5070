package agent

import (
	"regexp"
	"strings"
)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._\-=/+]+`),
	regexp.MustCompile(`(?i)\b(sk-[A-Za-z0-9\-_]{8,})\b`),
	regexp.MustCompile(`(?i)\b([A-Za-z0-9_]*(TOKEN|SECRET|PASSWORD|API_KEY))\b\s*[:=]\s*["']?([^\s"']+)`),
}

// redactSecrets masks credential-shaped substrings before they reach
// the log stream.
func redactSecrets(text string) (string, bool) {
	out := text
	redacted := false
	for _, p := range secretPatterns {
		out = p.ReplaceAllStringFunc(out, func(m string) string {
			redacted = true
			if strings.Contains(m, "=") {
				parts := strings.SplitN(m, "=", 2)
				return parts[0] + "=***REDACTED***"
			}
			if strings.Contains(m, ":") {
				kv := strings.SplitN(m, ":", 2)
				return kv[0] + ": ***REDACTED***"
			}
			return "***REDACTED***"
		})
	}
	return out, redacted
}

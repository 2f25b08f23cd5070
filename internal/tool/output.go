package tool

import "strings"

// Limits controls tool output truncation boundaries.
type Limits struct {
	MaxLines int
	MaxBytes int
}

// ApplyOutputLimits truncates text by line and byte limits.
func ApplyOutputLimits(text string, limits Limits) (string, bool) {
	truncated := false
	if limits.MaxLines > 0 {
		lines := strings.Split(text, "\n")
		if len(lines) > limits.MaxLines {
			lines = lines[:limits.MaxLines]
			text = strings.Join(lines, "\n")
			truncated = true
		}
	}
	if limits.MaxBytes > 0 && len(text) > limits.MaxBytes {
		text = text[:limits.MaxBytes]
		truncated = true
	}
	return text, truncated
}

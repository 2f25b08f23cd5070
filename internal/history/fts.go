package history

import "strings"

// matchExpression builds an FTS5 MATCH expression that ORs the given
// terms, each as a quoted phrase so user input cannot inject FTS syntax.
// Returns "" when no usable term remains.
func matchExpression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

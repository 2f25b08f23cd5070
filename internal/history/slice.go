package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a turn index range with Python slice semantics: nil bounds are
// open, negative indices count from the end, End is exclusive.
type Range struct {
	Start *int
	End   *int
}

// ParseSlice parses a textual slice expression of the form "start:end",
// where either side may be empty and may be negative. Step syntax is not
// supported. Returns ErrInvalidQuery on malformed input.
func ParseSlice(expr string) (Range, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return Range{}, fmt.Errorf("%w: empty slice expression", ErrInvalidQuery)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("%w: slice expression must be \"start:end\", got %q", ErrInvalidQuery, expr)
	}

	var r Range
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Range{}, fmt.Errorf("%w: slice bound %q is not an integer", ErrInvalidQuery, part)
		}
		bound := n
		if i == 0 {
			r.Start = &bound
		} else {
			r.End = &bound
		}
	}
	return r, nil
}

// Resolve clamps the range against total and returns concrete [start, end)
// indices. Out-of-range bounds clamp rather than error.
func (r Range) Resolve(total int) (int, int) {
	start := 0
	if r.Start != nil {
		start = *r.Start
		if start < 0 {
			start += total
		}
		if start < 0 {
			start = 0
		}
		if start > total {
			start = total
		}
	}

	end := total
	if r.End != nil {
		end = *r.End
		if end < 0 {
			end += total
		}
		if end < 0 {
			end = 0
		}
		if end > total {
			end = total
		}
	}

	if end < start {
		end = start
	}
	return start, end
}

package history

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLimit is the number of most recent records returned when the
// caller provides no limit and no turn range.
const DefaultLimit = 10

// Query is a single retrieval request over one chat. All fields except
// ChatID are optional. All active filters are ANDed together; Terms is an
// OR-set across its entries.
type Query struct {
	ChatID int64

	// Limit caps the result to the most recent N records. Nil means
	// DefaultLimit; zero or negative yields an empty result. Ignored when
	// a turn range is present.
	Limit *int

	// StartTurn/EndTurn form an explicit turn range with Python slice
	// semantics: negative counts from the end, the upper bound is
	// half-open. Slice is the equivalent textual form ("start:end");
	// setting both the pair and Slice is invalid.
	StartTurn *int
	EndTurn   *int
	Slice     string

	// Terms filters to records whose text matches any term via the
	// store's token search.
	Terms []string

	// Days restricts to records newer than now minus this many days.
	// Nil means unbounded; negative is invalid.
	Days *int

	// Role restricts message-grouped records to one role. Invalid against
	// a turn-grouped store.
	Role string
}

// rangeOf validates the query and returns its turn range, or ok=false
// when no range is active and the limit applies instead.
func (q Query) rangeOf() (Range, bool, error) {
	if q.Days != nil && *q.Days < 0 {
		return Range{}, false, fmt.Errorf("%w: days must not be negative, got %d", ErrInvalidQuery, *q.Days)
	}
	switch q.Role {
	case "", RoleUser, RoleAssistant:
	default:
		return Range{}, false, fmt.Errorf("%w: role_filter must be %q or %q, got %q", ErrInvalidQuery, RoleUser, RoleAssistant, q.Role)
	}

	hasPair := q.StartTurn != nil || q.EndTurn != nil
	hasSlice := strings.TrimSpace(q.Slice) != ""
	if hasPair && hasSlice {
		return Range{}, false, fmt.Errorf("%w: turn range given both as slice %q and as start/end pair", ErrInvalidQuery, q.Slice)
	}
	if hasSlice {
		r, err := ParseSlice(q.Slice)
		if err != nil {
			return Range{}, false, err
		}
		return r, true, nil
	}
	if hasPair {
		return Range{Start: q.StartTurn, End: q.EndTurn}, true, nil
	}
	return Range{}, false, nil
}

// limit returns the effective record limit.
func (q Query) limit() int {
	if q.Limit == nil {
		return DefaultLimit
	}
	return *q.Limit
}

// since returns the lower timestamp bound, or ok=false when unbounded.
func (q Query) since(now time.Time) (time.Time, bool) {
	if q.Days == nil {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(*q.Days) * 24 * time.Hour), true
}

// window applies the turn range or the recency limit to chronologically
// ascending records. Selection of "most recent N" works backward from the
// end; the returned slice stays ascending.
func window(records []Record, r Range, hasRange bool, limit int) []Record {
	if hasRange {
		start, end := r.Resolve(len(records))
		return records[start:end]
	}
	if limit <= 0 {
		return nil
	}
	if len(records) > limit {
		return records[len(records)-limit:]
	}
	return records
}

package backup

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// filterTimeLayout is yyyy-MM-dd hh:mm:ss tt.
const filterTimeLayout = "2006-01-02 03:04:05 PM"

// queryWindow is the range filled in when only one end of a date range is given.
const queryWindow = 30 * 24 * time.Hour

// FilterString renders an OData filter "k eq 'v'" joined by " and ", sorted by key.
// Only string and time.Time values are used; empty strings and nil times are skipped.
func FilterString(filter map[string]any) string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	segments := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := filter[k].(type) {
		case string:
			if v != "" {
				segments = append(segments, fmt.Sprintf("%s eq '%s'", k, v))
			}
		case time.Time:
			segments = append(segments, fmt.Sprintf("%s eq '%s'", k, v.Format(filterTimeLayout)))
		case *time.Time:
			if v != nil {
				segments = append(segments, fmt.Sprintf("%s eq '%s'", k, v.Format(filterTimeLayout)))
			}
		}
	}
	return strings.Join(segments, " and ")
}

// QueryDates completes a date range: a missing end is start plus 30 days and a missing
// start is end minus 30 days.
func QueryDates(start, end *time.Time) (*time.Time, *time.Time) {
	switch {
	case start != nil && end != nil:
		return start, end
	case start == nil && end != nil:
		s := end.Add(-queryWindow)
		return &s, end
	case start != nil && end == nil:
		e := start.Add(queryWindow)
		return start, &e
	default:
		return nil, nil
	}
}

// IsNativeName reports whether name is a service generated name, which contains ';'.
func IsNativeName(name string) bool {
	return strings.Contains(name, ";")
}

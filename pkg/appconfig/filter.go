package appconfig

import "strings"

// MatchKeyFilter reports whether key matches an App Configuration key filter.
// A filter is a comma-separated list of alternatives; "\," is a literal comma.
// Each alternative supports wildcard patterns:
//   - "*" matches every key
//   - "prefix*" matches keys starting with "prefix"
//   - "*suffix" matches keys ending with "suffix"
//   - "*contains*" matches keys containing "contains"
//   - "exact" matches keys exactly
//
// An empty filter matches every key.
func MatchKeyFilter(key, filter string) bool {
	if filter == "" {
		return true
	}
	for _, pattern := range splitFilter(filter) {
		if matchesPattern(key, pattern) {
			return true
		}
	}
	return false
}

// FilterKeyValues returns the key-values whose key matches filter and whose label matches
// label. An empty label matches every label; "\0" matches only the null label.
func FilterKeyValues(kvs []KeyValue, filter, label string) []KeyValue {
	result := make([]KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		if !MatchKeyFilter(kv.Key, filter) {
			continue
		}
		if !matchesLabel(kv.Label, label) {
			continue
		}
		result = append(result, kv)
	}
	return result
}

func matchesLabel(label, filter string) bool {
	switch filter {
	case "", "*":
		return true
	case NullLabel:
		return label == ""
	}
	return MatchKeyFilter(label, filter)
}

func splitFilter(filter string) []string {
	var (
		parts   []string
		current strings.Builder
	)
	for i := 0; i < len(filter); i++ {
		c := filter[i]
		if c == '\\' && i+1 < len(filter) {
			i++
			current.WriteByte(filter[i])
			continue
		}
		if c == ',' {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}
	return append(parts, strings.TrimSpace(current.String()))
}

// matchesPattern checks if a key matches a wildcard pattern.
func matchesPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}

	// No wildcard - exact match
	if !strings.Contains(pattern, "*") {
		return key == pattern
	}

	// *contains* - contains match
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		substr := strings.Trim(pattern, "*")
		return strings.Contains(key, substr)
	}

	// *suffix - ends with match
	if strings.HasPrefix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(key, suffix)
	}

	// prefix* - starts with match
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(key, prefix)
	}

	return false
}

package appconfig

import (
	"sort"
	"strings"
)

// ConnectionString is a parsed "Endpoint=...;Id=...;Secret=..." string.
type ConnectionString struct {
	Endpoint string
	ID       string
	Secret   string
}

// IsValidConnectionString reports whether s has exactly the Endpoint, Id and Secret
// segments, in any order.
func IsValidConnectionString(s string) bool {
	segments := strings.Split(s, ";")
	if len(segments) != 3 {
		return false
	}
	sort.Strings(segments)
	return strings.HasPrefix(segments[0], "Endpoint=") &&
		strings.HasPrefix(segments[1], "Id=") &&
		strings.HasPrefix(segments[2], "Secret=")
}

// ParseConnectionString splits s into its segments. ok is false when s is invalid.
func ParseConnectionString(s string) (cs ConnectionString, ok bool) {
	if !IsValidConnectionString(s) {
		return ConnectionString{}, false
	}
	for _, seg := range strings.Split(s, ";") {
		name, value, _ := strings.Cut(seg, "=")
		switch name {
		case "Endpoint":
			cs.Endpoint = value
		case "Id":
			cs.ID = value
		case "Secret":
			cs.Secret = value
		}
	}
	return cs, true
}

// StoreNameFromConnectionString returns the store name embedded in the endpoint, or ""
// when s is invalid.
func StoreNameFromConnectionString(s string) string {
	cs, ok := ParseConnectionString(s)
	if !ok {
		return ""
	}
	_, host, found := strings.Cut(cs.Endpoint, "//")
	if !found {
		return ""
	}
	name, _, _ := strings.Cut(host, ".")
	return name
}

// EndpointForStore returns the data plane endpoint of a store in the public cloud.
func EndpointForStore(name string) string {
	return "https://" + strings.ToLower(name) + ".azconfig.io"
}

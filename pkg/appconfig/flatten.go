package appconfig

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/azctl/azctl/pkg/errors"
)

// NullLabel selects key-values without a label in list filters.
const NullLabel = `\0`

// Flatten turns a decoded JSON or YAML document into key-values. Nested objects and
// arrays are joined with separator until depth levels have been consumed; anything below
// is stored as its JSON encoding. depth <= 0 means unlimited.
func Flatten(data any, separator string, depth int, prefix string) (map[string]string, error) {
	if depth <= 0 {
		depth = math.MaxInt
	}
	flattened := make(map[string]string)

	switch root := data.(type) {
	case nil:
		return flattened, nil
	case []any:
		for i, item := range root {
			if err := flattenValue(prefix+strconv.Itoa(i), item, flattened, depth, separator); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(root) {
			if err := flattenValue(prefix+k, root[k], flattened, depth, separator); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidArgumentValue,
			"The input is not a well formatted file: expected an object or an array at the top level.")
	}
	return flattened, nil
}

func flattenValue(key string, value any, flattened map[string]string, depth int, separator string) error {
	if depth <= 1 {
		flattened[key] = scalarString(value)
		return nil
	}
	depth--

	switch v := value.(type) {
	case []any:
		if separator == "" {
			return errSeparatorRequired()
		}
		for i, item := range v {
			if err := flattenValue(key+separator+strconv.Itoa(i), item, flattened, depth, separator); err != nil {
				return err
			}
		}
	case map[string]any:
		if separator == "" {
			return errSeparatorRequired()
		}
		for _, k := range sortedKeys(v) {
			if err := flattenValue(key+separator+k, v[k], flattened, depth, separator); err != nil {
				return err
			}
		}
	default:
		if _, ok := flattened[key]; ok {
			slog.Debug("key already exists, value has been overwritten", "key", key)
		}
		flattened[key] = scalarString(value)
	}
	return nil
}

func errSeparatorRequired() error {
	return errors.New(errors.ErrCodeCLI, "A non-empty separator is required for importing hierarchical configurations.")
}

// scalarString renders a leaf value. Strings are kept verbatim, everything else is
// stored as JSON.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return formatFloat(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// formatFloat renders floats decoded from YAML the way a JSON encoder that keeps the
// float type does: 3 becomes "3.0" and large or tiny magnitudes use an exponent.
func formatFloat(f float64) string {
	if abs := math.Abs(f); f != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Unflatten rebuilds a nested document from key-values split on separator. Numeric
// segments become array indexes. With an empty separator the result is a flat object.
// Keys not starting with prefix are skipped and prefix is stripped from the rest.
// kvs must be sorted by key so that equal keys with different labels are adjacent.
func Unflatten(kvs []KeyValue, separator, prefix string) (any, error) {
	root := make(map[string]any)
	var rootList []any

	var previous *KeyValue
	for i := range kvs {
		kv := kvs[i]
		key := kv.Key
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			key = key[len(prefix):]
		}

		if previous != nil && previous.Key == kv.Key {
			if previous.Value != kv.Value {
				return nil, errors.Newf(errors.ErrCodeCLI,
					"Fail to export key-values. The key %s has two labels %s and %s, which conflicts with each other.",
					previous.Key, labelOrNull(previous.Label), labelOrNull(kv.Label))
			}
			continue
		}
		previous = &kvs[i]

		if separator == "" {
			root[key] = kv.Value
			continue
		}

		segments := strings.Split(key, separator)
		if isDigits(segments[0]) {
			rootList = insertList(rootList, segments, kv.Value, key)
		} else {
			insertMap(root, segments, kv.Value, key)
		}
	}

	if len(rootList) > 0 {
		if len(root) > 0 {
			b, _ := json.MarshalIndent(root, "", "  ")
			slog.Error("Can not export to a valid file! Some keys have been dropped.", "dropped", string(b))
		}
		return compact(rootList), nil
	}
	return compact(root), nil
}

// undef marks a list slot that no key filled.
type undef struct{}

func insertMap(m map[string]any, segments []string, value, key string) {
	first := segments[0]
	if isDigits(first) {
		slog.Debug("key dropped, it can not be exported to a valid file", "key", key)
		return
	}
	if len(segments) == 1 {
		m[first] = value
		return
	}
	child, ok := m[first]
	if !ok {
		child = newContainer(segments[1])
	}
	switch c := child.(type) {
	case map[string]any:
		insertMap(c, segments[1:], value, key)
		m[first] = c
	case []any:
		m[first] = insertList(c, segments[1:], value, key)
	default:
		slog.Debug("key dropped, it can not be exported to a valid file", "key", key)
	}
}

func insertList(list []any, segments []string, value, key string) []any {
	first := segments[0]
	if !isDigits(first) {
		slog.Debug("key dropped, it can not be exported to a valid file", "key", key)
		return list
	}
	idx, err := strconv.Atoi(first)
	if err != nil {
		slog.Debug("key dropped, it can not be exported to a valid file", "key", key)
		return list
	}
	for len(list) <= idx {
		list = append(list, undef{})
	}
	if len(segments) == 1 {
		list[idx] = value
		return list
	}
	if _, ok := list[idx].(undef); ok {
		list[idx] = newContainer(segments[1])
	}
	switch c := list[idx].(type) {
	case map[string]any:
		insertMap(c, segments[1:], value, key)
	case []any:
		list[idx] = insertList(c, segments[1:], value, key)
	default:
		slog.Debug("key dropped, it can not be exported to a valid file", "key", key)
	}
	return list
}

func newContainer(nextSegment string) any {
	if isDigits(nextSegment) {
		return []any{}
	}
	return map[string]any{}
}

// compact drops unfilled list slots.
func compact(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if _, ok := item.(undef); ok {
				continue
			}
			out = append(out, compact(item))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = compact(item)
		}
		return out
	default:
		return v
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func labelOrNull(label string) string {
	if label == "" {
		return "None"
	}
	return label
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

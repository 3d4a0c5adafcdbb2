package serializer

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	keyColor     = forcedColor(color.FgHiBlue)
	stringColor  = forcedColor(color.FgGreen)
	numberColor  = forcedColor(color.FgCyan)
	literalColor = forcedColor(color.FgMagenta)
)

// forcedColor colours regardless of color.NoColor; the writer decides whether jsonc
// is coloured at all.
func forcedColor(attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	c.EnableColor()
	return c.SprintFunc()
}

// writeColorJSON renders data as indented JSON with ANSI colours for keys and scalars.
func writeColorJSON(buf *bytes.Buffer, data any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch t := data.(type) {
	case map[string]any:
		if len(t) == 0 {
			buf.WriteString("{}")
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("{\n")
		for i, k := range keys {
			buf.WriteString(indent + "  " + keyColor(quote(k)) + ": ")
			writeColorJSON(buf, t[k], depth+1)
			if i < len(keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent + "}")
	case []any:
		if len(t) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, v := range t {
			buf.WriteString(indent + "  ")
			writeColorJSON(buf, v, depth+1)
			if i < len(t)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent + "]")
	case string:
		buf.WriteString(stringColor(quote(t)))
	case bool:
		buf.WriteString(literalColor(formatScalar(t)))
	case nil:
		buf.WriteString(literalColor("null"))
	default:
		buf.WriteString(numberColor(formatScalar(t)))
	}
}

func quote(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

package serializer

import "strings"

// Format is an output format accepted by --output.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatTSV   Format = "tsv"
	FormatNone  Format = "none"
)

// SupportedFormats returns the formats accepted by --output.
func SupportedFormats() []string {
	return []string{
		string(FormatJSON), string(FormatJSONC), string(FormatYAML),
		string(FormatTable), string(FormatTSV), string(FormatNone),
	}
}

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatJSONC, FormatYAML, FormatTable, FormatTSV, FormatNone:
		return false
	default:
		return true
	}
}

// ParseFormat normalises s into a Format. The result may be unknown.
func ParseFormat(s string) Format {
	return Format(strings.ToLower(strings.TrimSpace(s)))
}

/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Serializer writes a command result.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is implemented by serializers that own their destination.
type Closer interface {
	Close() error
}

// Writer renders values in one Format to an io.Writer, optionally projecting them
// through a JMESPath query first.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
	query  string
	color  bool

	mu     sync.Mutex
	closed bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithQuery applies a JMESPath expression to every value before it is rendered.
func WithQuery(expr string) Option {
	return func(w *Writer) {
		w.query = strings.TrimSpace(expr)
	}
}

// WithColor forces colour on or off for the jsonc format.
func WithColor(enabled bool) Option {
	return func(w *Writer) {
		w.color = enabled
	}
}

// NewWriter creates a Writer for output. Unknown formats fall back to JSON.
func NewWriter(format Format, output io.Writer, opts ...Option) *Writer {
	if format.IsUnknown() {
		format = FormatJSON
	}
	if output == nil {
		output = os.Stdout
	}
	w := &Writer{format: format, output: output}
	if format == FormatJSONC {
		w.color = isTerminal(output)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewStdoutWriter creates a Writer for stdout.
func NewStdoutWriter(format Format, opts ...Option) *Writer {
	return NewWriter(format, os.Stdout, opts...)
}

// NewFileWriterOrStdout creates a Writer for path, or for stdout when path is empty
// or "-".
func NewFileWriterOrStdout(format Format, path string, opts ...Option) (Serializer, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == StdoutURI {
		return NewStdoutWriter(format, opts...), nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %q: %w", path, err)
	}

	w := NewWriter(format, f, opts...)
	w.closer = f
	return w, nil
}

// Serialize renders v.
func (w *Writer) Serialize(_ context.Context, v any) error {
	if w.format == FormatNone {
		return nil
	}

	data, err := Normalize(v)
	if err != nil {
		return err
	}
	if w.query != "" {
		if data, err = Query(w.query, data); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	switch w.format {
	case FormatYAML:
		if err := writeYAML(&buf, data); err != nil {
			return err
		}
	case FormatTable:
		writeTable(&buf, data)
	case FormatTSV:
		writeTSV(&buf, data)
	case FormatJSONC:
		if w.color {
			writeColorJSON(&buf, data, 0)
			buf.WriteByte('\n')
			break
		}
		fallthrough
	default:
		if err := writeJSON(&buf, data); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.output.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Close releases the destination file, if any. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.closer == nil {
		w.closed = true
		return nil
	}
	w.closed = true
	return w.closer.Close()
}

// Normalize converts v into the generic JSON model (maps, slices, strings, float64,
// bools, nil) so struct tags decide field names for every format.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize to json: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize output: %w", err)
	}
	return out, nil
}

func writeJSON(buf *bytes.Buffer, data any) error {
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to serialize to json: %w", err)
	}
	return nil
}

func writeYAML(buf *bytes.Buffer, data any) error {
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to serialize to yaml: %w", err)
	}
	return enc.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

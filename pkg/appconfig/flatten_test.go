package appconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/errors"
)

func TestFlatten(t *testing.T) {
	doc := map[string]any{
		"app": map[string]any{
			"color": "blue",
			"ports": []any{json.Number("80"), json.Number("443")},
			"debug": false,
		},
		"name": "demo",
	}

	tests := []struct {
		name      string
		separator string
		depth     int
		prefix    string
		want      map[string]string
	}{
		{
			name:      "unlimited depth",
			separator: ":",
			want: map[string]string{
				"app:color":   "blue",
				"app:ports:0": "80",
				"app:ports:1": "443",
				"app:debug":   "false",
				"name":        "demo",
			},
		},
		{
			name:      "depth 2",
			separator: ".",
			depth:     2,
			want: map[string]string{
				"app.color": "blue",
				"app.ports": "[80,443]",
				"app.debug": "false",
				"name":      "demo",
			},
		},
		{
			name:   "depth 1 with prefix",
			depth:  1,
			prefix: "cfg/",
			want: map[string]string{
				"cfg/app":  `{"color":"blue","debug":false,"ports":[80,443]}`,
				"cfg/name": "demo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(doc, tt.separator, tt.depth, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlatten_NumberLiterals(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "json integer", value: json.Number("3"), want: "3"},
		{name: "json float keeps its fraction", value: json.Number("3.0"), want: "3.0"},
		{name: "json exponent kept verbatim", value: json.Number("1e21"), want: "1e21"},
		{name: "yaml integer", value: 3, want: "3"},
		{name: "yaml float", value: 3.0, want: "3.0"},
		{name: "yaml fraction", value: 0.25, want: "0.25"},
		{name: "yaml large float", value: 1e21, want: "1e+21"},
		{name: "yaml tiny float", value: 0.00001, want: "1e-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(map[string]any{"n": tt.value}, ":", 0, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got["n"])
		})
	}
}

func TestFlatten_RootList(t *testing.T) {
	got, err := Flatten([]any{"a", map[string]any{"b": "c"}}, "/", 0, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"0": "a", "1/b": "c"}, got)
}

func TestFlatten_SeparatorRequired(t *testing.T) {
	_, err := Flatten(map[string]any{"a": map[string]any{"b": 1}}, "", 0, "")
	require.Error(t, err)
	assert.Equal(t, "A non-empty separator is required for importing hierarchical configurations.", errors.Message(err))
}

func TestUnflatten(t *testing.T) {
	kvs := []KeyValue{
		{Key: "app:color", Value: "blue"},
		{Key: "app:ports:0", Value: "80"},
		{Key: "app:ports:1", Value: "443"},
		{Key: "name", Value: "demo"},
	}

	got, err := Unflatten(kvs, ":", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"app": map[string]any{
			"color": "blue",
			"ports": []any{"80", "443"},
		},
		"name": "demo",
	}, got)
}

func TestUnflatten_RootListAndGaps(t *testing.T) {
	kvs := []KeyValue{
		{Key: "0", Value: "a"},
		{Key: "2", Value: "c"},
	}

	got, err := Unflatten(kvs, "/", "")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, got)
}

func TestUnflatten_Prefix(t *testing.T) {
	kvs := []KeyValue{
		{Key: "cfg/a", Value: "1"},
		{Key: "other/b", Value: "2"},
	}

	got, err := Unflatten(kvs, "", "cfg/")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, got)
}

func TestUnflatten_ConflictingLabels(t *testing.T) {
	kvs := []KeyValue{
		{Key: "a", Value: "1"},
		{Key: "a", Value: "2", Label: "prod"},
	}

	_, err := Unflatten(kvs, ":", "")
	require.Error(t, err)
	assert.Contains(t, errors.Message(err), "The key a has two labels None and prod, which conflicts with each other.")

	kvs[1].Value = "1"
	_, err = Unflatten(kvs, ":", "")
	assert.NoError(t, err)
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	doc := map[string]any{
		"db": map[string]any{
			"hosts": []any{"a", "b"},
			"port":  "5432",
		},
	}

	flat, err := Flatten(doc, ".", 0, "")
	require.NoError(t, err)

	kvs := make([]KeyValue, 0, len(flat))
	for _, k := range sortedKeys(flat) {
		kvs = append(kvs, KeyValue{Key: k, Value: flat[k]})
	}

	got, err := Unflatten(kvs, ".", "")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

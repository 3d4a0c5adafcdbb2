/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
)

func TestConfigSetGetUnset(t *testing.T) {
	isolate(t)

	_, err := execute(t, "config", "set", "defaults.group=rg1", "core.output=json")
	require.NoError(t, err)

	out, err := execute(t, "config", "get", "defaults.group")
	require.NoError(t, err)
	var entry config.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "defaults", entry.Section)
	assert.Equal(t, "group", entry.Name)
	assert.Equal(t, "rg1", entry.Value)

	out, err = execute(t, "config", "get")
	require.NoError(t, err)
	var all map[string][]config.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all["defaults"], 1)
	assert.Len(t, all["core"], 1)

	_, err = execute(t, "config", "unset", "defaults.group")
	require.NoError(t, err)

	_, err = execute(t, "config", "get", "defaults.group")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceNotFound))
}

func TestConfigSetErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"no arguments", []string{"config", "set"}, errors.ErrCodeRequiredArgumentMissing},
		{"missing value", []string{"config", "set", "defaults.group"}, errors.ErrCodeInvalidArgumentValue},
		{"missing section", []string{"config", "set", "group=rg"}, errors.ErrCodeInvalidArgumentValue},
		{"unset without arguments", []string{"config", "unset"}, errors.ErrCodeRequiredArgumentMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestConfigOutputDefault(t *testing.T) {
	isolate(t)
	_, err := execute(t, "config", "set", "core.output=yaml")
	require.NoError(t, err)

	out, err := execute(t, "config", "get", "core.output")
	require.NoError(t, err)
	assert.Contains(t, out, "value: yaml")

	out, err = execute(t, "config", "get", "-o", "json", "core.output")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": "yaml"`)
}

func TestConfigGetSection(t *testing.T) {
	isolate(t)
	_, err := execute(t, "config", "set", "defaults.group=rg", "defaults.location=eastus")
	require.NoError(t, err)

	out, err := execute(t, "config", "get", "defaults")
	require.NoError(t, err)
	var entries []config.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "group", entries[0].Name)
	assert.Equal(t, "location", entries[1].Name)
}

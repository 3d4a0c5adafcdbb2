/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/armrest"
	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/profile"
)

// useARMServer sends every resource manager call to handler.
func useARMServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	stub(t, &newARMClient, func(*profile.Profile) *armrest.Client {
		return armrest.New(nil, armrest.Options{Endpoint: srv.URL, MaxRetries: -1, Transport: srv.Client()})
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestResourceShow(t *testing.T) {
	isolate(t)
	useARMServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subscriptions/sub/resourceGroups/rg":
			assert.Equal(t, resourcesAPIVersion, r.URL.Query().Get("api-version"))
			writeJSON(w, http.StatusOK, `{"name":"rg"}`)
		case "/subscriptions/sub/providers/Microsoft.Storage":
			writeJSON(w, http.StatusOK, `{"namespace":"Microsoft.Storage","resourceTypes":[{"resourceType":"storageAccounts","apiVersions":["2024-01-01-preview","2023-05-01"]}]}`)
		case "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/sa":
			assert.Equal(t, "2023-05-01", r.URL.Query().Get("api-version"))
			writeJSON(w, http.StatusOK, `{"name":"sa"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":{"code":"ResourceNotFound","message":"not found"}}`)
		}
	})

	t.Run("single", func(t *testing.T) {
		out, err := execute(t, "resource", "show", "--ids", "/subscriptions/sub/resourceGroups/rg")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"rg"}`, out)
	})

	t.Run("batch with failure", func(t *testing.T) {
		out, err := execute(t, "resource", "show",
			"--ids", "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/sa",
			"--ids", "/subscriptions/sub/resourceGroups/missing",
			"--ids", "/subscriptions/sub/resourceGroups/rg")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))
		assert.JSONEq(t, `[{"name":"sa"},{"name":"rg"}]`, out)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := execute(t, "resource", "show", "--ids", "not-an-id")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidArgumentValue, errors.CodeOf(err))
	})
}

func TestRest(t *testing.T) {
	isolate(t)
	var gotBody map[string]any
	useARMServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "on", r.Header.Get("X-Test"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &gotBody))
		writeJSON(w, http.StatusCreated, string(raw))
	})

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"location":"eastus"}`), 0o600))

	out, err := execute(t, "rest", "-m", "put", "--url", "/subscriptions/sub/resourcegroups/rg?api-version=2021-04-01",
		"--body", "@"+path, "--headers", "X-Test=on")
	require.NoError(t, err)
	assert.Equal(t, "eastus", gotBody["location"])
	assert.JSONEq(t, `{"location":"eastus"}`, out)
}

func TestRestMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "get", want: http.MethodGet},
		{in: "PATCH", want: http.MethodPatch},
		{in: "Delete", want: http.MethodDelete},
		{in: "fetch", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := restMethod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidArgumentValue, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRestBody(t *testing.T) {
	body, err := restBody("")
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = restBody(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, body)

	_, err = restBody("@" + filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileOperation, errors.CodeOf(err))
}

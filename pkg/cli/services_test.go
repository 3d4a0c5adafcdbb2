/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/azctl/azctl/pkg/acr"
	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/monitor"
	"github.com/azctl/azctl/pkg/profile"
	"github.com/azctl/azctl/pkg/storage"
)

type fakeAccountLister map[string][]storage.Account

func (f fakeAccountLister) ListAccounts(_ context.Context, subscription string) ([]storage.Account, error) {
	accounts, ok := f[subscription]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnauthorized, "no access to %s", subscription)
	}
	return accounts, nil
}

func TestStorageAccountList(t *testing.T) {
	isolate(t)
	stub(t, &newAccountLister, func(*profile.Profile) storage.AccountLister {
		return fakeAccountLister{
			"sub1": {{Name: "b", ResourceGroup: "rg1", Subscription: "sub1"}, {Name: "a", ResourceGroup: "rg2", Subscription: "sub1"}},
			"sub2": {{Name: "c", ResourceGroup: "rg1", Subscription: "sub2"}},
		}
	})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "current subscription",
			args: []string{"--subscription", "sub1", "--query", "[].name"},
			want: `["b","a"]`,
		},
		{
			name: "several subscriptions",
			args: []string{"--subscription", "sub1", "--subscriptions", "sub1", "--subscriptions", "sub2", "--query", "[].name"},
			want: `["b","a","c"]`,
		},
		{
			name: "resource group filter",
			args: []string{"--subscription", "sub1", "--subscriptions", "sub2", "--subscriptions", "sub1", "-g", "RG1", "--query", "[].name"},
			want: `["b","c"]`,
		},
		{
			name: "grouped",
			args: []string{"--subscription", "sub1", "--group-by-resource-group"},
			want: `{"rg1":["b"],"rg2":["a"]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"storage", "account", "list"}, tt.args...)...)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, out)
		})
	}

	_, err := execute(t, "storage", "account", "list", "--subscription", "sub1", "--subscriptions", "other")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err))
}

type fakeSettingsLister []*armmonitor.DiagnosticSettingsResource

func (f fakeSettingsLister) ListSettings(context.Context, string) ([]*armmonitor.DiagnosticSettingsResource, error) {
	return f, nil
}

type fakeLogsQuerier struct {
	body azquery.Body
}

func (f *fakeLogsQuerier) QueryWorkspace(_ context.Context, _ string, body azquery.Body, _ *azquery.LogsClientQueryWorkspaceOptions) (azquery.LogsClientQueryWorkspaceResponse, error) {
	f.body = body
	var resp azquery.LogsClientQueryWorkspaceResponse
	resp.Tables = []*azquery.Table{{
		Columns: []*azquery.Column{{Name: ptr.To("Computer")}},
		Rows:    []azquery.Row{{"vm-1"}},
	}}
	return resp, nil
}

func TestMonitorCommands(t *testing.T) {
	isolate(t)
	workspace := "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.OperationalInsights/workspaces/ws"
	stub(t, &newSettingsLister, func(*profile.Profile) (monitor.SettingsLister, error) {
		return fakeSettingsLister{{
			Name: ptr.To("audit"),
			Properties: &armmonitor.DiagnosticSettings{
				WorkspaceID: ptr.To(workspace),
				Logs: []*armmonitor.LogSettings{{
					Category: ptr.To("StorageRead"),
					Enabled:  ptr.To(true),
				}},
			},
		}}, nil
	})
	querier := &fakeLogsQuerier{}
	stub(t, &newLogsQuerier, func(*profile.Profile) (monitor.LogsQuerier, error) {
		return querier, nil
	})

	out, err := execute(t, "monitor", "diagnostic-settings", "list", "--subscription", "sub", "--resource", "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/sa")
	require.NoError(t, err)
	var settings []monitor.DiagnosticSetting
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	require.Len(t, settings, 1)
	assert.Equal(t, workspace, settings[0].WorkspaceID)
	assert.True(t, settings[0].ReadLogsEnabled)

	out, err = execute(t, "monitor", "log-analytics", "query", "-w", "ws-guid", "--analytics-query", "Heartbeat", "--timespan", "PT1H")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Computer":"vm-1"}]`, out)
	require.NotNil(t, querier.body.Timespan)
	assert.Equal(t, azquery.TimeInterval("PT1H"), *querier.body.Timespan)

	_, err = execute(t, "monitor", "log-analytics", "query", "-w", "ws-guid", "--analytics-query", "Heartbeat", "--timespan", "PT1H", "--since", "1h")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMutuallyExclusiveArgument, errors.CodeOf(err))
}

type fakeRegistry struct {
	repos []string
	tags  map[string][]string
	shown acr.Image
}

func (f *fakeRegistry) Repositories(context.Context) ([]string, error) { return f.repos, nil }

func (f *fakeRegistry) Tags(_ context.Context, repository string) ([]string, error) {
	tags, ok := f.tags[repository]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeResourceNotFound, "repository %s not found", repository)
	}
	return tags, nil
}

func (f *fakeRegistry) ManifestShow(_ context.Context, image acr.Image) (*acr.Manifest, error) {
	f.shown = image
	return &acr.Manifest{}, nil
}

func TestACRCommands(t *testing.T) {
	isolate(t)
	registry := &fakeRegistry{repos: []string{"app", "base"}, tags: map[string][]string{"app": {"v1", "v2"}}}
	var opened []string
	var gotToken string
	stub(t, &registryRefreshToken, func(context.Context, *profile.Profile, string) (string, error) {
		return "refresh", nil
	})
	stub(t, &newRegistryClient, func(loginServer string, opts acr.ClientOptions) (registryClient, error) {
		opened = append(opened, loginServer)
		gotToken = opts.RefreshToken
		return registry, nil
	})

	out, err := execute(t, "acr", "repository", "list", "-n", "myreg")
	require.NoError(t, err)
	assert.JSONEq(t, `["app","base"]`, out)
	assert.Equal(t, []string{"myreg.azurecr.io"}, opened)
	assert.Equal(t, "refresh", gotToken)

	out, err = execute(t, "acr", "repository", "show-tags", "-n", "myreg", "--repository", "app")
	require.NoError(t, err)
	assert.JSONEq(t, `["v1","v2"]`, out)

	_, err = execute(t, "acr", "repository", "show-tags", "-n", "myreg", "--repository", "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))

	_, err = execute(t, "acr", "manifest", "show", "-n", "myreg", "--anonymous", "app")
	require.NoError(t, err)
	assert.Equal(t, "myreg.azurecr.io", registry.shown.Registry)
	assert.Equal(t, "app", registry.shown.Repository)
	assert.Equal(t, "latest", registry.shown.Tag)
	assert.Empty(t, gotToken)

	_, err = execute(t, "acr", "repository", "list")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRequiredArgumentMissing, errors.CodeOf(err))
}

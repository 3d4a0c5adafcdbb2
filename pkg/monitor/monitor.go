// Package monitor reads diagnostic settings and queries Log Analytics workspaces.
package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"k8s.io/utils/ptr"

	"github.com/azctl/azctl/pkg/errors"
)

// DiagnosticSetting is a diagnostic setting that sends logs to a workspace.
type DiagnosticSetting struct {
	Name            string   `json:"name" yaml:"name"`
	Resource        string   `json:"resource" yaml:"resource"`
	WorkspaceID     string   `json:"workspaceId" yaml:"workspaceId"`
	Workspace       string   `json:"workspace" yaml:"workspace"`
	ReadLogsEnabled bool     `json:"readLogsEnabled" yaml:"readLogsEnabled"`
	Categories      []string `json:"categories" yaml:"categories"`
}

// SettingsLister lists the raw diagnostic settings of a resource.
type SettingsLister interface {
	ListSettings(ctx context.Context, resourceURI string) ([]*armmonitor.DiagnosticSettingsResource, error)
}

// LogsQuerier runs a query against a Log Analytics workspace. *azquery.LogsClient
// satisfies it.
type LogsQuerier interface {
	QueryWorkspace(ctx context.Context, workspaceID string, body azquery.Body, options *azquery.LogsClientQueryWorkspaceOptions) (azquery.LogsClientQueryWorkspaceResponse, error)
}

// DiagnosticSettings returns the settings of resourceURI that target a workspace.
// Settings without a workspace are skipped.
func DiagnosticSettings(ctx context.Context, lister SettingsLister, resourceURI string) ([]DiagnosticSetting, error) {
	raw, err := lister.ListSettings(ctx, resourceURI)
	if err != nil {
		return nil, err
	}

	out := make([]DiagnosticSetting, 0, len(raw))
	for _, v := range raw {
		if v == nil || v.Properties == nil || v.Properties.WorkspaceID == nil {
			continue
		}
		workspaceID := *v.Properties.WorkspaceID
		segments := strings.Split(strings.TrimSuffix(workspaceID, "/"), "/")
		setting := DiagnosticSetting{
			Name:        ptr.Deref(v.Name, ""),
			Resource:    resourceURI,
			WorkspaceID: workspaceID,
			Workspace:   segments[len(segments)-1],
			Categories:  []string{},
		}
		for _, l := range v.Properties.Logs {
			if l == nil || !ptr.Deref(l.Enabled, false) {
				continue
			}
			category := ptr.Deref(l.Category, ptr.Deref(l.CategoryGroup, ""))
			setting.Categories = append(setting.Categories, category)
			// Blob storage logs reads under StorageRead; other services are assumed
			// to use a similar category.
			if strings.Contains(strings.ToLower(category), "read") {
				setting.ReadLogsEnabled = true
			}
		}
		out = append(out, setting)
	}
	return out, nil
}

// QueryWorkspace runs query against workspace. timespan is an ISO 8601 duration or
// interval such as "PT1H"; empty means the query decides. Each row is keyed by column
// name.
func QueryWorkspace(ctx context.Context, client LogsQuerier, workspace, query, timespan string) ([]map[string]any, error) {
	if workspace == "" {
		return nil, errors.New(errors.ErrCodeRequiredArgumentMissing, "the following arguments are required: --workspace")
	}
	body := azquery.Body{Query: ptr.To(query)}
	if timespan != "" {
		ts := azquery.TimeInterval(timespan)
		body.Timespan = &ts
	}

	resp, err := client.QueryWorkspace(ctx, workspace, body, nil)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	if resp.Error != nil {
		return nil, errors.Wrap(errors.ErrCodeAzureInternal, "query returned a partial result", resp.Error)
	}

	rows := make([]map[string]any, 0)
	for _, table := range resp.Tables {
		if table == nil {
			continue
		}
		for _, row := range table.Rows {
			rows = append(rows, rowToMap(row, table.Columns))
		}
	}
	return rows, nil
}

// Since renders the interval from start until now.
func Since(start time.Time) string {
	return string(azquery.NewTimeInterval(start, time.Now()))
}

func rowToMap(row azquery.Row, columns []*azquery.Column) map[string]any {
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		if col == nil || col.Name == nil || i >= len(row) {
			continue
		}
		m[*col.Name] = row[i]
	}
	return m
}

// SDKSettingsLister implements SettingsLister with armmonitor.
type SDKSettingsLister struct {
	settings *armmonitor.DiagnosticSettingsClient
}

// NewSDKSettingsLister creates an SDKSettingsLister for subscription.
func NewSDKSettingsLister(subscription string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*SDKSettingsLister, error) {
	factory, err := armmonitor.NewClientFactory(subscription, cred, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create monitor client", err)
	}
	return &SDKSettingsLister{settings: factory.NewDiagnosticSettingsClient()}, nil
}

func (l *SDKSettingsLister) ListSettings(ctx context.Context, resourceURI string) ([]*armmonitor.DiagnosticSettingsResource, error) {
	var out []*armmonitor.DiagnosticSettingsResource
	pager := l.settings.NewListPager(strings.TrimPrefix(resourceURI, "/"), nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.FromAzureError(err)
		}
		out = append(out, page.Value...)
	}
	return out, nil
}

// NewLogsClient returns an azquery logs client.
func NewLogsClient(cred azcore.TokenCredential) (*azquery.LogsClient, error) {
	client, err := azquery.NewLogsClient(cred, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create logs client", err)
	}
	return client, nil
}

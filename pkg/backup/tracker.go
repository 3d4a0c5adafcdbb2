package backup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/azctl/azctl/pkg/armid"
	"github.com/azctl/azctl/pkg/armrest"
	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/poller"
)

// APIVersion is the Recovery Services backup API version.
const APIVersion = "2023-02-01"

// Operation and job states.
const (
	StatusInProgress = "InProgress"
	StatusSucceeded  = "Succeeded"
	StatusFailed     = "Failed"
	StatusCancelling = "Cancelling"
)

// OperationClient sends resource manager requests. *armrest.Client implements it.
type OperationClient interface {
	Do(ctx context.Context, method, path, apiVersion string, body any) (*armrest.Response, error)
}

// OperationStatus is the status of an asynchronous backup operation.
type OperationStatus struct {
	ID         string                     `json:"id,omitempty"`
	Name       string                     `json:"name,omitempty"`
	Status     string                     `json:"status"`
	Properties *OperationStatusProperties `json:"properties,omitempty"`
	Error      *OperationError            `json:"error,omitempty"`
}

// OperationStatusProperties links an operation to the job it created.
type OperationStatusProperties struct {
	ObjectType string `json:"objectType,omitempty"`
	JobID      string `json:"jobId,omitempty"`
}

// OperationError describes a failed operation.
type OperationError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Job is a backup job.
type Job struct {
	ID            string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	Type          string        `json:"type,omitempty" yaml:"type,omitempty"`
	ResourceGroup string        `json:"resourceGroup,omitempty" yaml:"resourceGroup,omitempty"`
	Properties    JobProperties `json:"properties" yaml:"properties"`
}

// JobProperties holds the common job fields.
type JobProperties struct {
	JobType              string         `json:"jobType,omitempty" yaml:"jobType,omitempty"`
	EntityFriendlyName   string         `json:"entityFriendlyName,omitempty" yaml:"entityFriendlyName,omitempty"`
	BackupManagementType string         `json:"backupManagementType,omitempty" yaml:"backupManagementType,omitempty"`
	Operation            string         `json:"operation,omitempty" yaml:"operation,omitempty"`
	Status               string         `json:"status,omitempty" yaml:"status,omitempty"`
	StartTime            *time.Time     `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime              *time.Time     `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Duration             string         `json:"duration,omitempty" yaml:"duration,omitempty"`
	ActivityID           string         `json:"activityId,omitempty" yaml:"activityId,omitempty"`
	ExtendedInfo         map[string]any `json:"extendedInfo,omitempty" yaml:"extendedInfo,omitempty"`
}

type jobList struct {
	Value    []Job  `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}

// JobInProgress reports whether a job in the given state is still running.
func JobInProgress(status string) bool {
	return status == StatusInProgress || status == StatusCancelling
}

// Tracker follows backup operations and jobs of one subscription.
type Tracker struct {
	Client       OperationClient
	Subscription string
	// Interval between two status checks. Zero uses defaults.PollInterval.
	Interval time.Duration
	// Timeout bounds TrackJob and TrackRefresh. Zero uses defaults.PollTimeout.
	Timeout time.Duration
}

func (t *Tracker) interval() time.Duration {
	if t.Interval > 0 {
		return t.Interval
	}
	return defaults.PollInterval
}

func (t *Tracker) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return defaults.PollTimeout
}

func (t *Tracker) vaultPath(resourceGroup, vault string) string {
	return armid.Build(armid.Parts{
		Subscription:  t.Subscription,
		ResourceGroup: resourceGroup,
		Namespace:     "Microsoft.RecoveryServices",
		Type:          "vaults",
		Name:          vault,
	})
}

// TrackJob waits for the operation named by an Azure-AsyncOperation header to finish and
// returns the job it created, or nil when the operation carries no job.
func (t *Tracker) TrackJob(ctx context.Context, resourceGroup, vault, asyncOperationHeader string) (*Job, error) {
	operationID := armrest.OperationIDFromHeader(asyncOperationHeader)
	if operationID == "" {
		return nil, errors.New(errors.ErrCodeCLI, "the response carries no Azure-AsyncOperation header")
	}
	path := t.vaultPath(resourceGroup, vault) + "/backupOperations/" + operationID

	var status OperationStatus
	err := poller.Until(ctx, t.interval(), t.timeout(), func(ctx context.Context) (bool, error) {
		resp, err := t.Client.Do(ctx, http.MethodGet, path, APIVersion, nil)
		if err != nil {
			return false, err
		}
		status = OperationStatus{}
		if err := resp.Decode(&status); err != nil {
			return false, err
		}
		slog.Debug("backup operation status", "operation", operationID, "status", status.Status)
		return status.Status != StatusInProgress, nil
	})
	if err != nil {
		return nil, err
	}

	if status.Status == StatusFailed && status.Error != nil {
		slog.Warn("backup operation failed", "operation", operationID, "code", status.Error.Code, "message", status.Error.Message)
	}
	if status.Properties == nil || status.Properties.JobID == "" {
		return nil, nil
	}
	return t.ShowJob(ctx, resourceGroup, vault, status.Properties.JobID)
}

// TrackRefresh waits for a container refresh started on fabric to finish. The operation
// result endpoint answers 202 while the refresh runs.
func (t *Tracker) TrackRefresh(ctx context.Context, resourceGroup, vault, fabric, locationHeader string) error {
	operationID := armrest.OperationIDFromHeader(locationHeader)
	if operationID == "" {
		return errors.New(errors.ErrCodeCLI, "the response carries no Location header")
	}
	path := fmt.Sprintf("%s/backupFabrics/%s/operationResults/%s", t.vaultPath(resourceGroup, vault), fabric, operationID)

	return poller.Until(ctx, t.interval(), t.timeout(), func(ctx context.Context) (bool, error) {
		resp, err := t.Client.Do(ctx, http.MethodGet, path, APIVersion, nil)
		if err != nil {
			return false, err
		}
		return resp.StatusCode != http.StatusAccepted, nil
	})
}

// ShowJob returns one job.
func (t *Tracker) ShowJob(ctx context.Context, resourceGroup, vault, name string) (*Job, error) {
	resp, err := t.Client.Do(ctx, http.MethodGet, t.vaultPath(resourceGroup, vault)+"/backupJobs/"+name, APIVersion, nil)
	if err != nil {
		return nil, err
	}
	var job Job
	if err := resp.Decode(&job); err != nil {
		return nil, err
	}
	job.ResourceGroup = resourceGroup
	return &job, nil
}

// StopJob requests cancellation of a job.
func (t *Tracker) StopJob(ctx context.Context, resourceGroup, vault, name string) error {
	_, err := t.Client.Do(ctx, http.MethodPost, t.vaultPath(resourceGroup, vault)+"/backupJobs/"+name+"/cancel", APIVersion, nil)
	return err
}

// WaitJob polls a job until it is no longer in progress. When timeout elapses first a
// warning is logged and the last known state is returned. A zero timeout waits forever.
func (t *Tracker) WaitJob(ctx context.Context, resourceGroup, vault, name string, timeout time.Duration) (*Job, error) {
	slog.Warn(fmt.Sprintf("Waiting for job '%s' ...", name))

	var job *Job
	err := poller.Until(ctx, t.interval(), timeout, func(ctx context.Context) (bool, error) {
		j, err := t.ShowJob(ctx, resourceGroup, vault, name)
		if err != nil {
			return false, err
		}
		job = j
		return !JobInProgress(j.Properties.Status), nil
	})
	if errors.IsCode(err, errors.ErrCodeTimeout) && job != nil {
		slog.Warn(fmt.Sprintf("Command timed out while waiting for job '%s'", name))
		return job, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// JobFilter narrows ListJobs.
type JobFilter struct {
	Status               string
	Operation            string
	BackupManagementType string
	Start                *time.Time
	End                  *time.Time
}

// ListJobs lists the jobs of a vault, following next links.
func (t *Tracker) ListJobs(ctx context.Context, resourceGroup, vault string, f JobFilter) ([]Job, error) {
	start, end := QueryDates(f.Start, f.End)
	filter := FilterString(map[string]any{
		"status":               f.Status,
		"operation":            f.Operation,
		"startTime":            start,
		"endTime":              end,
		"backupManagementType": f.BackupManagementType,
	})

	query := url.Values{}
	query.Set("api-version", APIVersion)
	path := t.vaultPath(resourceGroup, vault) + "/backupJobs?" + query.Encode()
	if filter != "" {
		path += "&$filter=" + url.PathEscape(filter)
	}

	var jobs []Job
	for path != "" {
		resp, err := t.Client.Do(ctx, http.MethodGet, path, "", nil)
		if err != nil {
			return nil, err
		}
		var page jobList
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}
		for i := range page.Value {
			page.Value[i].ResourceGroup = resourceGroup
		}
		jobs = append(jobs, page.Value...)
		path = page.NextLink
	}
	return jobs, nil
}

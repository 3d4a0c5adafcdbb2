/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/armid"
	"github.com/azctl/azctl/pkg/backup"
	"github.com/azctl/azctl/pkg/errors"
)

const (
	flagVaultName = "vault-name"

	// jobDateLayout is the dd-mm-yyyy layout of --start-date and --end-date.
	jobDateLayout = "02-01-2006"
)

func backupCmd() *cli.Command {
	return &cli.Command{
		Name:   "backup",
		Usage:  "Manage Azure Backups",
		Action: groupAction,
		Commands: []*cli.Command{
			{
				Name:   "job",
				Usage:  "Entity which contains details of the job",
				Action: groupAction,
				Commands: []*cli.Command{
					backupJobShowCmd(),
					backupJobWaitCmd(),
					backupJobListCmd(),
					backupJobStopCmd(),
				},
			},
		},
	}
}

func vaultFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     flagVaultName,
		Aliases:  []string{"v"},
		Usage:    "Name of the Recovery services vault",
		Required: required,
	}
}

func jobFlags() []cli.Flag {
	return []cli.Flag{
		resourceGroupFlag(),
		vaultFlag(false),
		nameFlag("Name of the job", false),
		&cli.StringSliceFlag{
			Name:  flagIDs,
			Usage: "One or more job resource IDs; other job arguments are ignored",
		},
	}
}

func backupTracker(cmd *cli.Command) (*backup.Tracker, error) {
	p, err := resolveProfile(cmd, true)
	if err != nil {
		return nil, err
	}
	return &backup.Tracker{Client: newARMClient(p), Subscription: p.Subscription}, nil
}

// jobRef names one job in a vault.
type jobRef struct {
	resourceGroup string
	vault         string
	name          string
}

// jobRefs resolves --ids or the -g/-v/-n triple into job references.
func jobRefs(cmd *cli.Command) ([]jobRef, error) {
	if ids := cmd.StringSlice(flagIDs); len(ids) > 0 {
		refs := make([]jobRef, 0, len(ids))
		for _, id := range ids {
			rid, err := armid.Parse(id)
			if err != nil {
				return nil, err
			}
			if rid.Parent == nil || rid.ResourceGroupName == "" {
				return nil, errors.Newf(errors.ErrCodeInvalidArgumentValue, "invalid backup job ID %q", id)
			}
			refs = append(refs, jobRef{resourceGroup: rid.ResourceGroupName, vault: rid.Parent.Name, name: rid.Name})
		}
		return refs, nil
	}

	rg, err := resourceGroup(cmd, true)
	if err != nil {
		return nil, err
	}
	vault, name := cmd.String(flagVaultName), cmd.String(flagName)
	if vault == "" || name == "" {
		return nil, errors.New(errors.ErrCodeRequiredArgumentMissing,
			"usage error: --ids IDS | --resource-group NAME --vault-name NAME --name NAME")
	}
	return []jobRef{{resourceGroup: rg, vault: vault, name: name}}, nil
}

// forEachJob runs fn for every referenced job. A single job is written as an object, many
// as a list.
func forEachJob(ctx context.Context, cmd *cli.Command, fn func(ctx context.Context, t *backup.Tracker, ref jobRef) (*backup.Job, error)) error {
	refs, err := jobRefs(cmd)
	if err != nil {
		return err
	}
	tracker, err := backupTracker(cmd)
	if err != nil {
		return err
	}
	if len(refs) == 1 {
		job, err := fn(ctx, tracker, refs[0])
		if err != nil {
			return err
		}
		return writeResult(ctx, cmd, job)
	}

	ids := cmd.StringSlice(flagIDs)
	byID := make(map[string]jobRef, len(refs))
	for i, ref := range refs {
		byID[ids[i]] = ref
	}
	jobs, batchErr := runBatch(ctx, ids, func(ctx context.Context, id string) (*backup.Job, error) {
		return fn(ctx, tracker, byID[id])
	})
	if err := writeResult(ctx, cmd, jobs); err != nil {
		return err
	}
	return batchErr
}

func backupJobShowCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show details of a particular job",
		Flags: jobFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return forEachJob(ctx, cmd, func(ctx context.Context, t *backup.Tracker, ref jobRef) (*backup.Job, error) {
				return t.ShowJob(ctx, ref.resourceGroup, ref.vault, ref.name)
			})
		},
	}
}

func backupJobWaitCmd() *cli.Command {
	return &cli.Command{
		Name:  "wait",
		Usage: "Wait until either the job completes or the specified timeout value is reached",
		Flags: append(jobFlags(), &cli.IntFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Maximum time, in seconds, to wait before aborting; zero waits until the job ends",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			timeout := time.Duration(cmd.Int("timeout")) * time.Second
			if timeout < 0 {
				return errors.New(errors.ErrCodeInvalidArgumentValue, "--timeout must not be negative")
			}
			return forEachJob(ctx, cmd, func(ctx context.Context, t *backup.Tracker, ref jobRef) (*backup.Job, error) {
				return t.WaitJob(ctx, ref.resourceGroup, ref.vault, ref.name, timeout)
			})
		},
	}
}

func backupJobStopCmd() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Suspend or terminate a currently running job",
		Flags: jobFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			refs, err := jobRefs(cmd)
			if err != nil {
				return err
			}
			tracker, err := backupTracker(cmd)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if err := tracker.StopJob(ctx, ref.resourceGroup, ref.vault, ref.name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func backupJobListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all backup jobs of a Recovery Services vault",
		Flags: []cli.Flag{
			resourceGroupFlag(),
			vaultFlag(true),
			&cli.StringFlag{Name: "status", Usage: "Status of the job: Cancelled, Completed, CompletedWithWarnings, Failed or InProgress"},
			&cli.StringFlag{Name: "operation", Usage: "User initiated operation: Backup, ConfigureBackup, DeleteBackupData, DisableBackup or Restore"},
			&cli.StringFlag{Name: "backup-management-type", Usage: "Backup management type: AzureIaasVM, AzureStorage, AzureWorkload or MAB"},
			&cli.StringFlag{Name: "start-date", Usage: "Start date of the range in UTC (d-m-Y)"},
			&cli.StringFlag{Name: "end-date", Usage: "End date of the range in UTC (d-m-Y)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rg, err := resourceGroup(cmd, true)
			if err != nil {
				return err
			}
			start, err := parseJobDate(cmd, "start-date")
			if err != nil {
				return err
			}
			end, err := parseJobDate(cmd, "end-date")
			if err != nil {
				return err
			}
			tracker, err := backupTracker(cmd)
			if err != nil {
				return err
			}
			jobs, err := tracker.ListJobs(ctx, rg, cmd.String(flagVaultName), backup.JobFilter{
				Status:               cmd.String("status"),
				Operation:            cmd.String("operation"),
				BackupManagementType: cmd.String("backup-management-type"),
				Start:                start,
				End:                  end,
			})
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, jobs)
		},
	}
}

func parseJobDate(cmd *cli.Command, flag string) (*time.Time, error) {
	value := cmd.String(flag)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(jobDateLayout, value, time.UTC)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue,
			"Input '"+value+"' is not valid. Valid example: 31-12-2017", err)
	}
	return &t, nil
}

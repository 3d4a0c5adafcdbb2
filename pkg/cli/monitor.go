/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/monitor"
)

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:   "monitor",
		Usage:  "Manage the Azure Monitor Service",
		Action: groupAction,
		Commands: []*cli.Command{
			{
				Name:   "diagnostic-settings",
				Usage:  "Manage service diagnostic settings",
				Action: groupAction,
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List the diagnostic settings of a resource",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "resource", Usage: "ID of the resource", Required: true},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							p, err := resolveProfile(cmd, true)
							if err != nil {
								return err
							}
							lister, err := newSettingsLister(p)
							if err != nil {
								return err
							}
							settings, err := monitor.DiagnosticSettings(ctx, lister, cmd.String("resource"))
							if err != nil {
								return err
							}
							return writeResult(ctx, cmd, settings)
						},
					},
				},
			},
			{
				Name:   "log-analytics",
				Usage:  "Query Log Analytics workspaces",
				Action: groupAction,
				Commands: []*cli.Command{
					monitorQueryCmd(),
				},
			},
		},
	}
}

func monitorQueryCmd() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Query a Log Analytics workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "GUID of the Log Analytics workspace"},
			&cli.StringFlag{Name: "analytics-query", Usage: "Query to execute", Required: true},
			&cli.StringFlag{Name: "timespan", Usage: "ISO 8601 timespan to query, e.g. PT2H"},
			&cli.DurationFlag{Name: "since", Usage: "Query the interval from now minus this duration, e.g. 2h"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			timespan := cmd.String("timespan")
			if cmd.IsSet("since") {
				if timespan != "" {
					return errors.New(errors.ErrCodeMutuallyExclusiveArgument, "usage error: --timespan | --since")
				}
				timespan = monitor.Since(time.Now().Add(-cmd.Duration("since")))
			}
			p, err := resolveProfile(cmd, false)
			if err != nil {
				return err
			}
			client, err := newLogsQuerier(p)
			if err != nil {
				return err
			}
			rows, err := monitor.QueryWorkspace(ctx, client, cmd.String("workspace"), cmd.String("analytics-query"), timespan)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, rows)
		},
	}
}

/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/storage"
)

func storageCmd() *cli.Command {
	return &cli.Command{
		Name:   "storage",
		Usage:  "Manage Azure Cloud Storage resources",
		Action: groupAction,
		Commands: []*cli.Command{
			{
				Name:   "account",
				Usage:  "Manage storage accounts",
				Action: groupAction,
				Commands: []*cli.Command{
					storageAccountListCmd(),
				},
			},
		},
	}
}

func storageAccountListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List storage accounts",
		Flags: []cli.Flag{
			resourceGroupFlag(),
			&cli.StringSliceFlag{
				Name:  "subscriptions",
				Usage: "Subscriptions to list; defaults to the current subscription",
			},
			&cli.BoolFlag{
				Name:  "group-by-resource-group",
				Usage: "Output account names keyed by resource group",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := resolveProfile(cmd, true)
			if err != nil {
				return err
			}
			subscriptions := cmd.StringSlice("subscriptions")
			if len(subscriptions) == 0 {
				subscriptions = []string{p.Subscription}
			}
			accounts, err := storage.ListAccounts(ctx, newAccountLister(p), cmd.String(flagResourceGroup), subscriptions...)
			if err != nil {
				return err
			}
			if cmd.Bool("group-by-resource-group") {
				return writeResult(ctx, cmd, storage.GroupByResourceGroup(accounts))
			}
			return writeResult(ctx, cmd, accounts)
		},
	}
}

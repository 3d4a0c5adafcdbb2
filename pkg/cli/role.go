/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/role"
)

func roleCmd() *cli.Command {
	return &cli.Command{
		Name:   "role",
		Usage:  "Manage Azure role-based access control (Azure RBAC)",
		Action: groupAction,
		Commands: []*cli.Command{
			{
				Name:   "assignment",
				Usage:  "Manage role assignments",
				Action: groupAction,
				Commands: []*cli.Command{
					roleAssignmentCreateCmd(),
					roleAssignmentListCmd(),
					roleAssignmentDeleteCmd(),
				},
			},
		},
	}
}

func roleScopeFlags() []cli.Flag {
	return []cli.Flag{
		resourceGroupFlag(),
		&cli.StringFlag{Name: "scope", Usage: "Scope at which the role assignment applies, e.g. /subscriptions/0b1f6471-1bf0-4dda-aec3-111122223333"},
		&cli.StringFlag{Name: "role", Usage: "Role name or id"},
		&cli.StringFlag{Name: "assignee", Usage: "Object ID of the user, group or service principal"},
	}
}

func roleClients(cmd *cli.Command) (string, role.AssignmentClient, role.DefinitionLister, error) {
	p, err := resolveProfile(cmd, true)
	if err != nil {
		return "", nil, nil, err
	}
	client, defs, err := newRoleClient(p)
	if err != nil {
		return "", nil, nil, err
	}
	return p.Subscription, client, defs, nil
}

func roleAssignmentCreateCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new role assignment for a user, group, or service principal",
		Flags: append(roleScopeFlags(), &cli.StringFlag{
			Name:  "assignee-principal-type",
			Usage: "Principal type of the assignee: User, Group or ServicePrincipal",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			subscription, client, defs, err := roleClients(cmd)
			if err != nil {
				return err
			}
			rg, err := resourceGroup(cmd, false)
			if err != nil {
				return err
			}
			if cmd.IsSet("scope") {
				rg = cmd.String(flagResourceGroup)
			}
			created, err := role.Create(ctx, client, defs, role.CreateOptions{
				Subscription:  subscription,
				ResourceGroup: rg,
				Scope:         cmd.String("scope"),
				Role:          cmd.String("role"),
				Assignee:      cmd.String("assignee"),
				PrincipalType: cmd.String("assignee-principal-type"),
			})
			if err != nil || created == nil {
				return err
			}
			return writeResult(ctx, cmd, created)
		},
	}
}

func roleAssignmentListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List role assignments",
		Flags: append(roleScopeFlags(),
			&cli.BoolFlag{Name: "include-inherited", Usage: "Include assignments applied on parent scopes"},
			&cli.BoolFlag{Name: "all", Usage: "Show all assignments under the current subscription"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			subscription, client, defs, err := roleClients(cmd)
			if err != nil {
				return err
			}
			assignments, err := role.List(ctx, client, defs, role.ListOptions{
				Subscription:     subscription,
				ResourceGroup:    cmd.String(flagResourceGroup),
				Scope:            cmd.String("scope"),
				Assignee:         cmd.String("assignee"),
				Role:             cmd.String("role"),
				IncludeInherited: cmd.Bool("include-inherited"),
				All:              cmd.Bool("all"),
			})
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, assignments)
		},
	}
}

func roleAssignmentDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete role assignments",
		Flags: append(roleScopeFlags(),
			&cli.BoolFlag{Name: "include-inherited", Usage: "Include assignments applied on parent scopes"},
			&cli.StringSliceFlag{Name: flagIDs, Usage: "Space-separated role assignment ids"},
			yesFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			subscription, client, defs, err := roleClients(cmd)
			if err != nil {
				return err
			}
			opts := role.DeleteOptions{
				IDs:              cmd.StringSlice(flagIDs),
				Subscription:     subscription,
				ResourceGroup:    cmd.String(flagResourceGroup),
				Scope:            cmd.String("scope"),
				Assignee:         cmd.String("assignee"),
				Role:             cmd.String("role"),
				IncludeInherited: cmd.Bool("include-inherited"),
			}
			if len(opts.IDs) == 0 && opts.Assignee == "" && opts.Role == "" && opts.ResourceGroup == "" && opts.Scope == "" {
				ok, err := confirm(cmd, "This will delete all role assignments under the subscription. Are you sure?")
				if err != nil || !ok {
					return err
				}
			}
			deleted, err := role.Delete(ctx, client, defs, opts)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, deleted)
		},
	}
}

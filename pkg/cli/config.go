/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Manage azctl configuration",
		Action: groupAction,
		Commands: []*cli.Command{
			configSetCmd(),
			configGetCmd(),
			configUnsetCmd(),
		},
	}
}

func configSetCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set configurations",
		ArgsUsage: "<section.name=value>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New(errors.ErrCodeRequiredArgumentMissing,
					"the following arguments are required: section.name=value")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, arg := range cmd.Args().Slice() {
				section, key, value, err := config.ParseAssignment(arg)
				if err != nil {
					return err
				}
				cfg.Set(section, key, value)
			}
			return cfg.Save()
		},
	}
}

func configGetCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get a configuration",
		ArgsUsage: "[section[.name]]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			entries := cfg.Entries()
			if cmd.Args().Len() == 0 {
				return writeResult(ctx, cmd, groupEntries(entries))
			}

			arg := cmd.Args().First()
			section, key, err := config.SplitName(arg)
			if err != nil {
				var out []config.Entry
				for _, e := range entries {
					if e.Section == arg {
						out = append(out, e)
					}
				}
				if out == nil {
					return errors.Newf(errors.ErrCodeResourceNotFound, "Configuration section '%s' is not set", arg)
				}
				return writeResult(ctx, cmd, out)
			}
			for _, e := range entries {
				if e.Section == section && e.Name == key {
					return writeResult(ctx, cmd, e)
				}
			}
			return errors.Newf(errors.ErrCodeResourceNotFound, "Configuration '%s' is not set", arg)
		},
	}
}

func configUnsetCmd() *cli.Command {
	return &cli.Command{
		Name:      "unset",
		Usage:     "Unset configurations",
		ArgsUsage: "<section.name>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New(errors.ErrCodeRequiredArgumentMissing,
					"the following arguments are required: section.name")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, arg := range cmd.Args().Slice() {
				section, key, err := config.SplitName(arg)
				if err != nil {
					return err
				}
				if !cfg.Unset(section, key) {
					slog.Warn("configuration is not set", "name", arg)
				}
			}
			return cfg.Save()
		},
	}
}

// groupEntries keys entries by section.
func groupEntries(entries []config.Entry) map[string][]config.Entry {
	out := make(map[string][]config.Entry)
	for _, e := range entries {
		out[e.Section] = append(out[e.Section], e)
	}
	return out
}

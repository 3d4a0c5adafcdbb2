/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/logging"
	"github.com/azctl/azctl/pkg/telemetry"
)

const name = "azctl"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the azctl command tree with the process arguments and exits with the
// status matching the outcome.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stderr)
	stop()

	if err := telemetry.Flush(); err != nil {
		slog.Warn("failed to flush telemetry", "error", err)
	}
	os.Exit(code)
}

// run executes args and renders a failure to stderr. It returns the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	err := newRootCmd().Run(ctx, args)
	if err == nil {
		return errors.ExitOK
	}
	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "Operation cancelled.")
		return errors.ExitCancelled
	}
	fmt.Fprintf(stderr, "ERROR: %s\n", errors.Message(err))
	return errors.ExitCode(err)
}

func newRootCmd() *cli.Command {
	root := &cli.Command{
		Name:                  name,
		Usage:                 "Manage Azure resources from the command line",
		Version:               fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Flags:                 globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultCLILogger(logging.Options{
				Debug:          cmd.Bool(flagDebug),
				Verbose:        cmd.Bool(flagVerbose),
				OnlyShowErrors: onlyShowErrors(cmd),
				JSON:           cmd.Bool(flagLogJSON),
			})
			slog.Debug("starting", "name", name, "version", version, "commit", commit)
			return ctx, nil
		},
		Action: groupAction,
		Commands: []*cli.Command{
			aksCmd(),
			appconfigCmd(),
			backupCmd(),
			roleCmd(),
			storageCmd(),
			monitorCmd(),
			acrCmd(),
			resourceCmd(),
			restCmd(),
			configCmd(),
			versionCmd(),
		},
	}
	instrument(root)
	return root
}

// instrument wraps every leaf action so that its outcome is recorded.
func instrument(cmd *cli.Command) {
	for _, sub := range cmd.Commands {
		instrument(sub)
	}
	if len(cmd.Commands) > 0 || cmd.Action == nil {
		return
	}
	action := cmd.Action
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		started := time.Now()
		err := action(ctx, c)
		telemetry.ObserveCommand(c.FullName(), started, err)
		return err
	}
}

// groupAction runs when a command group is invoked without a known subcommand.
func groupAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		if cmd.Root() == cmd {
			return cli.ShowAppHelp(cmd)
		}
		return cli.ShowSubcommandHelp(cmd)
	}
	return unknownCommandError(cmd, cmd.Args().First())
}

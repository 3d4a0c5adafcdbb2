/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/serializer"
)

const (
	flagDebug          = "debug"
	flagVerbose        = "verbose"
	flagOnlyShowErrors = "only-show-errors"
	flagLogJSON        = "log-json"
	flagOutput         = "output"
	flagQuery          = "query"
	flagSubscription   = "subscription"
	flagResourceGroup  = "resource-group"
	flagName           = "name"
	flagIDs            = "ids"
	flagNoWait         = "no-wait"
	flagYes            = "yes"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "Increase logging verbosity to show all debug logs",
		},
		&cli.BoolFlag{
			Name:  flagVerbose,
			Usage: "Increase logging verbosity",
		},
		&cli.BoolFlag{
			Name:  flagOnlyShowErrors,
			Usage: "Only show errors, suppressing warnings",
		},
		&cli.BoolFlag{
			Name:  flagLogJSON,
			Usage: "Write logs in JSON format",
		},
		&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   fmt.Sprintf("Output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
		},
		&cli.StringFlag{
			Name:  flagQuery,
			Usage: "JMESPath query string applied to the result",
		},
		&cli.StringFlag{
			Name:    flagSubscription,
			Sources: cli.EnvVars("AZCTL_SUBSCRIPTION"),
			Usage:   "Name or ID of subscription",
		},
	}
}

func resourceGroupFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    flagResourceGroup,
		Aliases: []string{"g"},
		Usage:   "Name of resource group; configure the default with 'azctl config set defaults.group=<name>'",
	}
}

func noWaitFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  flagNoWait,
		Usage: "Do not wait for the long-running operation to finish",
	}
}

func yesFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:    flagYes,
		Aliases: []string{"y"},
		Usage:   "Do not prompt for confirmation",
	}
}

func nameFlag(usage string, required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     flagName,
		Aliases:  []string{"n"},
		Usage:    usage,
		Required: required,
	}
}

func onlyShowErrors(cmd *cli.Command) bool {
	if cmd.IsSet(flagOnlyShowErrors) {
		return cmd.Bool(flagOnlyShowErrors)
	}
	cfg, err := loadConfig()
	if err != nil {
		return false
	}
	return cfg.GetBool(config.SectionCore, config.KeyOnlyShowErrors)
}

// parseOutputFormat resolves --output, falling back to core.output and then json.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	value := cmd.String(flagOutput)
	if value == "" {
		if cfg, err := loadConfig(); err == nil {
			value = cfg.Get(config.SectionCore, config.KeyOutput)
		}
	}
	if value == "" {
		return serializer.FormatJSON, nil
	}
	outFormat := serializer.ParseFormat(value)
	if outFormat.IsUnknown() {
		return "", errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"argument --output/-o: invalid choice: %q (choose from %s)", value,
			strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// writeResult renders v to the command's writer in the selected format.
func writeResult(ctx context.Context, cmd *cli.Command, v any) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	w := serializer.NewWriter(outFormat, cmd.Root().Writer, serializer.WithQuery(cmd.String(flagQuery)))
	return w.Serialize(ctx, v)
}

// resourceGroup returns --resource-group or the configured default group.
func resourceGroup(cmd *cli.Command, required bool) (string, error) {
	rg := cmd.String(flagResourceGroup)
	if rg == "" {
		if cfg, err := loadConfig(); err == nil {
			rg = cfg.Get(config.SectionDefaults, config.KeyGroup)
		}
	}
	if rg == "" && required {
		return "", errors.New(errors.ErrCodeRequiredArgumentMissing,
			"the following arguments are required: --resource-group/-g")
	}
	return rg, nil
}

// optionalString returns a pointer to the flag value when the flag was given.
func optionalString(cmd *cli.Command, flag string) *string {
	if !cmd.IsSet(flag) {
		return nil
	}
	v := cmd.String(flag)
	return &v
}

// parseTags turns "k=v" items into a map. An item without "=" gets an empty value.
func parseTags(items []string) map[string]string {
	if len(items) == 0 {
		return nil
	}
	tags := make(map[string]string, len(items))
	for _, item := range items {
		for _, field := range strings.Fields(item) {
			k, v, _ := strings.Cut(field, "=")
			tags[k] = v
		}
	}
	return tags
}

func loadConfig() (*config.Config, error) {
	return config.LoadDefault()
}

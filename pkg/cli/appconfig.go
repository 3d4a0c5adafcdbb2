/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/appconfig"
	"github.com/azctl/azctl/pkg/errors"
)

func appconfigCmd() *cli.Command {
	return &cli.Command{
		Name:   "appconfig",
		Usage:  "Manage App Configuration key-values and feature flags",
		Action: groupAction,
		Commands: []*cli.Command{
			{
				Name:   "kv",
				Usage:  "Manage key-values stored in an App Configuration store",
				Action: groupAction,
				Commands: []*cli.Command{
					kvSetCmd(),
					kvShowCmd(),
					kvListCmd(),
					kvDeleteCmd(),
					kvImportCmd(),
					kvExportCmd(),
				},
			},
			{
				Name:   "feature",
				Usage:  "Manage feature flags stored in an App Configuration store",
				Action: groupAction,
				Commands: []*cli.Command{
					featureSetCmd(),
					featureShowCmd(),
					featureListCmd(),
					featureStateCmd("enable", true),
					featureStateCmd("disable", false),
					featureDeleteCmd(),
				},
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		nameFlag("Name of the App Configuration store; configure the default with 'azctl config set defaults.app_configuration_store=<name>'", false),
		&cli.StringFlag{
			Name:  "connection-string",
			Usage: "Combination of access key and endpoint of the App Configuration store",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Endpoint of the App Configuration store when --auth-mode is login",
		},
		&cli.StringFlag{
			Name:  "auth-mode",
			Value: appconfig.AuthModeKey,
			Usage: "Authentication mode: key or login",
		},
	}
}

func labelFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: "label", Usage: usage}
}

func keyFlag(usage string, required bool) *cli.StringFlag {
	return &cli.StringFlag{Name: "key", Usage: usage, Required: required}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "top", Aliases: []string{"t"}, Usage: fmt.Sprintf("Maximum number of items to return (default %d)", appconfig.DefaultListTop)},
		&cli.BoolFlag{Name: "all", Usage: "List all items"},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// appConfigStore opens the store selected by the store flags and configured defaults.
func appConfigStore(cmd *cli.Command) (appconfig.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	args := appconfig.ApplyStoreDefaults(appconfig.StoreArgs{
		Name:             cmd.String(flagName),
		ConnectionString: cmd.String("connection-string"),
		Endpoint:         cmd.String("endpoint"),
		AuthMode:         cmd.String("auth-mode"),
	}, cfg)
	if err := appconfig.ValidateConnectionString(args.ConnectionString); err != nil {
		return nil, err
	}
	if err := appconfig.ValidateAuthMode(args); err != nil {
		return nil, err
	}

	if args.ConnectionString != "" {
		return newAppConfigStore(args.ConnectionString, "", nil)
	}
	endpoint := args.Endpoint
	if endpoint == "" && args.Name != "" {
		endpoint = appconfig.EndpointForStore(args.Name)
		slog.Debug("using Entra ID authentication for store", "name", args.Name, "endpoint", endpoint)
	}
	var cred azcore.TokenCredential
	if endpoint != "" {
		p, err := resolveProfile(cmd, false)
		if err != nil {
			return nil, err
		}
		cred = p.Credential
	}
	return newAppConfigStore("", endpoint, cred)
}

func kvSetCmd() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Set a key-value",
		Flags: withFlags(storeFlags(), []cli.Flag{
			keyFlag("Key to be set", true),
			&cli.StringFlag{Name: "value", Usage: "Value of the key-value"},
			labelFlag("Label of the key-value; defaults to no label"),
			&cli.StringFlag{Name: "content-type", Usage: "Content type of the key-value"},
			&cli.StringSliceFlag{Name: "tags", Usage: "Space-separated tags: key[=value]"},
			yesFlag(),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, fmt.Sprintf("Set key '%s' with label '%s'. Are you sure?", cmd.String("key"), cmd.String("label")))
			if err != nil || !ok {
				return err
			}
			kv, err := appconfig.SetKeyValue(ctx, store, appconfig.SetArgs{
				Key:         cmd.String("key"),
				Label:       cmd.String("label"),
				Value:       optionalString(cmd, "value"),
				ContentType: optionalString(cmd, "content-type"),
				Tags:        parseTags(cmd.StringSlice("tags")),
			})
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, kv)
		},
	}
}

func kvShowCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show the attributes of a key-value",
		Flags: withFlags(storeFlags(), []cli.Flag{
			keyFlag("Key to be shown", true),
			labelFlag("Label of the key-value; defaults to no label"),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			kv, err := appconfig.ShowKeyValue(ctx, store, cmd.String("key"), cmd.String("label"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, kv)
		},
	}
}

func kvListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List key-values",
		Description: heredoc.Doc(`
			Lists key-values, optionally filtered by key and label.

			Filters support a trailing * and comma-separated alternatives. Use \0 as
			the label to list key-values without a label.

			Examples:
			  azctl appconfig kv list -n store --key "app/*"
			  azctl appconfig kv list -n store --label "dev,\0" --all
			  azctl appconfig kv list -n store --tags env=prod
		`),
		Flags: withFlags(storeFlags(), listFlags(), []cli.Flag{
			keyFlag("Key filter", false),
			labelFlag("Label filter"),
			&cli.StringSliceFlag{Name: "tags", Usage: "Tag filters, all must match: name[=value]"},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			kvs, err := appconfig.ListKeyValues(ctx, store, cmd.String("key"), cmd.String("label"),
				cmd.StringSlice("tags"), int(cmd.Int("top")), cmd.Bool("all"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, kvs)
		},
	}
}

func kvDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete key-values",
		Flags: withFlags(storeFlags(), []cli.Flag{
			keyFlag("Key filter of the key-values to delete", true),
			labelFlag("Label filter; defaults to no label"),
			yesFlag(),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, fmt.Sprintf("Delete key-values matching key '%s' and label '%s'. Are you sure?", cmd.String("key"), cmd.String("label")))
			if err != nil || !ok {
				return err
			}
			deleted, err := appconfig.DeleteKeyValues(ctx, store, cmd.String("key"), cmd.String("label"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, deleted)
		},
	}
}

func kvImportCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import configurations into an App Configuration store from a file",
		Description: heredoc.Doc(`
			Imports a json, yaml or properties file into the store.

			Nested objects are flattened into keys joined by --separator, up to --depth
			levels. A FeatureManagement section is imported as feature flags unless
			--skip-features is given. With --strict, keys under the prefix and label that
			are not in the file are deleted.

			Examples:
			  azctl appconfig kv import -n store --source file --path app.json --format json --separator :
			  azctl appconfig kv import -n store --path kv.json --format json --profile appconfig/kvset
		`),
		Flags: withFlags(storeFlags(), []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: appconfig.SourceFile, Usage: "Import source; only file is supported"},
			&cli.StringFlag{Name: "path", Usage: "Local configuration file path", Required: true},
			&cli.StringFlag{Name: "format", Usage: "Imported file format: json, yaml or properties"},
			labelFlag("Label applied to the imported key-values; defaults to no label"),
			&cli.StringFlag{Name: "prefix", Usage: "Prefix appended to the front of imported keys"},
			&cli.StringFlag{Name: "separator", Usage: "Delimiter for flattening the json or yaml file"},
			&cli.StringFlag{Name: "depth", Usage: "Depth for flattening the json or yaml file"},
			&cli.StringFlag{Name: "content-type", Usage: "Content type applied to all imported items"},
			&cli.StringSliceFlag{Name: "tags", Usage: "Tags applied to all imported key-values: key[=value]"},
			&cli.StringFlag{Name: "profile", Usage: "Import profile: default or appconfig/kvset"},
			&cli.BoolFlag{Name: "skip-features", Usage: "Import only key-values and exclude feature flags"},
			&cli.BoolFlag{Name: "strict", Usage: "Delete all other key-values in the store with the specified prefix and label"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Preview the result without writing to the store"},
			yesFlag(),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := appconfig.ValidateDryRun(cmd.Bool("dry-run"), cmd.Bool(flagYes)); err != nil {
				return err
			}
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			changes, err := appconfig.ImportFile(ctx, store, appconfig.ImportOptions{
				Args: appconfig.ImportArgs{
					Source:       cmd.String("source"),
					Path:         cmd.String("path"),
					Format:       cmd.String("format"),
					Profile:      cmd.String("profile"),
					ContentType:  optionalString(cmd, "content-type"),
					Label:        optionalString(cmd, "label"),
					Separator:    optionalString(cmd, "separator"),
					Depth:        optionalString(cmd, "depth"),
					Prefix:       cmd.String("prefix"),
					Tags:         parseTags(cmd.StringSlice("tags")),
					SkipFeatures: cmd.Bool("skip-features"),
					Strict:       cmd.Bool("strict"),
				},
				DryRun: cmd.Bool("dry-run"),
				Confirm: func(c *appconfig.ChangeSet) (bool, error) {
					return confirm(cmd, fmt.Sprintf("Import adds %d, updates %d and deletes %d key-values. Do you want to continue?",
						len(c.Added), len(c.Updated), len(c.Deleted)))
				},
			})
			if err != nil {
				return err
			}
			if changes.Empty() {
				slog.Warn("Target configuration already contains all configuration settings in source. No changes will be made.")
			}
			return writeResult(ctx, cmd, changes)
		},
	}
}

func kvExportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export configurations from an App Configuration store to a file",
		Flags: withFlags(storeFlags(), []cli.Flag{
			&cli.StringFlag{Name: "destination", Aliases: []string{"d"}, Value: appconfig.SourceFile, Usage: "Export destination; only file is supported"},
			&cli.StringFlag{Name: "path", Usage: "Local configuration file path", Required: true},
			&cli.StringFlag{Name: "format", Usage: "File format: json, yaml or properties"},
			keyFlag("Key filter; defaults to all keys", false),
			labelFlag("Label filter; defaults to no label"),
			&cli.StringFlag{Name: "prefix", Usage: "Prefix trimmed from the front of exported keys"},
			&cli.StringFlag{Name: "separator", Usage: "Delimiter for unflattening keys into a json or yaml file"},
			&cli.StringFlag{Name: "profile", Usage: "Export profile: default or appconfig/kvset"},
			&cli.BoolFlag{Name: "skip-features", Usage: "Export only key-values and exclude feature flags"},
			yesFlag(),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, fmt.Sprintf("Export key-values to %s. Do you want to continue?", cmd.String("path")))
			if err != nil || !ok {
				return err
			}
			exported, err := appconfig.ExportFile(ctx, store, appconfig.ExportOptions{
				Args: appconfig.ExportArgs{
					Destination:  cmd.String("destination"),
					Path:         cmd.String("path"),
					Format:       cmd.String("format"),
					Profile:      cmd.String("profile"),
					Separator:    optionalString(cmd, "separator"),
					Prefix:       cmd.String("prefix"),
					SkipFeatures: cmd.Bool("skip-features"),
				},
				Key:   cmd.String("key"),
				Label: cmd.String("label"),
			})
			if err != nil {
				return err
			}
			slog.Info("exported key-values", "count", len(exported), "path", cmd.String("path"))
			return nil
		},
	}
}

func featureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "feature", Usage: "Name of the feature flag"},
		keyFlag("Key of the feature flag; must start with "+appconfig.FeatureFlagPrefix, false),
		labelFlag("Label of the feature flag; defaults to no label"),
	}
}

func featureArgs(cmd *cli.Command) appconfig.FeatureArgs {
	return appconfig.FeatureArgs{
		Feature: cmd.String("feature"),
		Key:     cmd.String("key"),
		Label:   cmd.String("label"),
	}
}

func featureSetCmd() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Set a feature flag",
		Flags: withFlags(storeFlags(), featureFlags(), []cli.Flag{
			&cli.StringFlag{Name: "description", Usage: "Description of the feature flag"},
			yesFlag(),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			args := featureArgs(cmd)
			ok, err := confirm(cmd, fmt.Sprintf("Set feature flag '%s' with label '%s'. Are you sure?", args.Feature+args.Key, args.Label))
			if err != nil || !ok {
				return err
			}
			flag, err := appconfig.SetFeature(ctx, store, args, optionalString(cmd, "description"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, flag)
		},
	}
}

func featureShowCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show the attributes of a feature flag",
		Flags: withFlags(storeFlags(), featureFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			flag, err := appconfig.ShowFeature(ctx, store, featureArgs(cmd))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, flag)
		},
	}
}

func featureListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List feature flags",
		Flags: withFlags(storeFlags(), listFlags(), []cli.Flag{
			&cli.StringFlag{Name: "feature", Usage: "Feature name filter"},
			labelFlag("Label filter"),
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			flags, err := appconfig.ListFeatures(ctx, store, cmd.String("feature"), cmd.String("label"), int(cmd.Int("top")), cmd.Bool("all"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, flags)
		},
	}
}

func featureStateCmd(cmdName string, enabled bool) *cli.Command {
	state := appconfig.FeatureStateOff
	if enabled {
		state = appconfig.FeatureStateOn
	}
	return &cli.Command{
		Name:  cmdName,
		Usage: fmt.Sprintf("Turn a feature flag %s", state),
		Flags: withFlags(storeFlags(), featureFlags(), []cli.Flag{yesFlag()}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			args := featureArgs(cmd)
			ok, err := confirm(cmd, fmt.Sprintf("Turn feature flag '%s' %s. Are you sure?", args.Feature+args.Key, state))
			if err != nil || !ok {
				return err
			}
			flag, err := appconfig.SetFeatureState(ctx, store, args, enabled)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, flag)
		},
	}
}

func featureDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete feature flags",
		Flags: withFlags(storeFlags(), featureFlags(), []cli.Flag{yesFlag()}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := appConfigStore(cmd)
			if err != nil {
				return err
			}
			args := featureArgs(cmd)
			if args.Feature == "" && args.Key == "" {
				return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide either `--key` or `--feature` value.")
			}
			ok, err := confirm(cmd, fmt.Sprintf("Delete feature flags matching '%s' with label '%s'. Are you sure?", args.Feature+args.Key, args.Label))
			if err != nil || !ok {
				return err
			}
			deleted, err := appconfig.DeleteFeatures(ctx, store, args)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, deleted)
		},
	}
}

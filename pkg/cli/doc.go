/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the command-line interface of azctl.
//
// # Overview
//
// azctl manages Azure resources from a terminal. Commands are grouped by service and
// follow the "azctl <group> [<subgroup>] <command>" shape. Every result is written to
// stdout in the selected output format; diagnostics go to stderr.
//
// # Commands
//
// aks - Managed Kubernetes clusters:
//
//	azctl aks show -g rg -n cluster
//	azctl aks get-credentials -g rg -n cluster [--admin] [--file PATH] [--context NAME]
//	azctl aks enable-addons -g rg -n cluster -a monitoring --workspace-resource-id ID
//	azctl aks disable-addons -g rg -n cluster -a azure-policy
//	azctl aks verify [--kubeconfig PATH] [--context NAME]
//
// get-credentials merges the cluster's kubeconfig into an existing file. Conflicting
// entries prompt for replacement on a terminal unless --overwrite-existing is given;
// "-" prints the kubeconfig instead.
//
// appconfig - App Configuration key-values and feature flags:
//
//	azctl appconfig kv set -n store --key color --value red --label dev
//	azctl appconfig kv list -n store --key "app/*" --all
//	azctl appconfig kv import -n store --path app.json --format json --separator :
//	azctl appconfig kv export -n store --path out.yaml --format yaml --separator /
//	azctl appconfig feature set -n store --feature beta
//	azctl appconfig feature enable -n store --feature beta
//
// A store is selected with --connection-string, --name or --endpoint, falling back to
// defaults.appconfig_connection_string and defaults.app_configuration_store. Without a
// connection string the signed-in identity is used.
//
// backup - Recovery Services backup jobs:
//
//	azctl backup job list -g rg -v vault --status InProgress
//	azctl backup job show -g rg -v vault -n JOB
//	azctl backup job wait -g rg -v vault -n JOB --timeout 600
//
// role - Role assignments:
//
//	azctl role assignment create --assignee OBJECT_ID --role Reader -g rg
//	azctl role assignment list --all
//	azctl role assignment delete --ids ID [ID...]
//
// storage, monitor, acr - Read-only views:
//
//	azctl storage account list [--subscriptions SUB...] [--group-by-resource-group]
//	azctl monitor diagnostic-settings list --resource ID
//	azctl monitor log-analytics query -w WORKSPACE --analytics-query QUERY --since 1h
//	azctl acr repository list -n registry
//	azctl acr manifest show -n registry hello-world:latest
//
// resource, rest - Generic resource manager access:
//
//	azctl resource show --ids ID [ID...]
//	azctl rest -m put --url /subscriptions/{sub}/resourcegroups/rg?api-version=2021-04-01 --body @rg.json
//
// config - Local configuration:
//
//	azctl config set core.output=yaml defaults.group=rg
//	azctl config get defaults
//	azctl config unset defaults.group
//
// # Global Flags
//
//	--output, -o         Output format: json, jsonc, yaml, table, tsv, none (default: json)
//	--query              JMESPath query applied to the result
//	--subscription       Subscription name or ID
//	--debug              Enable debug logging
//	--verbose            Increase logging verbosity
//	--only-show-errors   Only show errors, suppressing warnings
//	--log-json           Output logs in JSON format
//
// # Configuration
//
// Settings live in an ini file under AZCTL_CONFIG_DIR (default ~/.azctl). Any setting
// can be overridden with AZCTL_<SECTION>_<NAME>, for example AZCTL_CORE_OUTPUT=table.
//
// # Exit Codes
//
//	0    Success
//	1    General error
//	2    Usage error (invalid or missing arguments)
//	3    Resource not found
//	130  Operation cancelled
//
// # Batches
//
// Commands accepting --ids run the IDs concurrently. Every failure is reported and the
// results that succeeded are still written, in the order the IDs were given.
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/azctl/azctl/pkg/cli.version=1.0.0'"
package cli

/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/aks"
	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/k8s/client"
	"github.com/azctl/azctl/pkg/kubeconfig"
)

func aksCmd() *cli.Command {
	return &cli.Command{
		Name:   "aks",
		Usage:  "Manage Azure Kubernetes Services",
		Action: groupAction,
		Commands: []*cli.Command{
			aksShowCmd(),
			aksGetCredentialsCmd(),
			aksAddonsCmd("enable-addons", true),
			aksAddonsCmd("disable-addons", false),
			aksVerifyCmd(),
		},
	}
}

func aksShowCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show the details for a managed Kubernetes cluster",
		Flags: []cli.Flag{resourceGroupFlag(), nameFlag("Name of the managed cluster", true)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rg, err := resourceGroup(cmd, true)
			if err != nil {
				return err
			}
			clusters, err := clusterClient(cmd)
			if err != nil {
				return err
			}
			cluster, err := aks.Show(ctx, clusters, rg, cmd.String(flagName))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, cluster)
		},
	}
}

func aksGetCredentialsCmd() *cli.Command {
	return &cli.Command{
		Name:  "get-credentials",
		Usage: "Get access credentials for a managed Kubernetes cluster",
		Description: heredoc.Doc(`
			Downloads the cluster kubeconfig and merges it into the kubeconfig file.

			Entries that already exist with different content are only replaced after
			confirmation, or right away with --overwrite-existing. Use --file - to print
			the kubeconfig instead of merging it.

			Examples:
			  azctl aks get-credentials -g rg -n cluster
			  azctl aks get-credentials -g rg -n cluster --admin --context admin-ctx
			  azctl aks get-credentials -g rg -n cluster --file -
		`),
		Flags: []cli.Flag{
			resourceGroupFlag(),
			nameFlag("Name of the managed cluster", true),
			&cli.BoolFlag{
				Name:    "admin",
				Aliases: []string{"a"},
				Usage:   "Get cluster administrator credentials",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Kubernetes configuration file to update; use - to print to stdout",
				Value:   kubeconfig.DefaultPath(),
			},
			&cli.BoolFlag{
				Name:  "overwrite-existing",
				Usage: "Overwrite any existing cluster entry with the same name",
			},
			&cli.StringFlag{
				Name:  "context",
				Usage: "Name of the context to create",
			},
			&cli.BoolFlag{
				Name:  "public-fqdn",
				Usage: "Get private cluster credentials with the server address set to the public FQDN",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Format of the user credentials: azure or exec",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rg, err := resourceGroup(cmd, true)
			if err != nil {
				return err
			}
			clusters, err := clusterClient(cmd)
			if err != nil {
				return err
			}
			return aks.GetCredentials(ctx, clusters, rg, cmd.String(flagName), aks.CredentialOptions{
				Admin:       cmd.Bool("admin"),
				Path:        cmd.String("file"),
				Overwrite:   cmd.Bool("overwrite-existing"),
				ContextName: cmd.String("context"),
				PublicFQDN:  cmd.Bool("public-fqdn"),
				Format:      cmd.String("format"),
				Prompt:      kubeconfig.TerminalPrompt(os.Stdin, cmd.Root().ErrWriter),
			}, cmd.Root().Writer)
		},
	}
}

func aksAddonsCmd(cmdName string, enable bool) *cli.Command {
	verb := "Disable"
	if enable {
		verb = "Enable"
	}
	flags := []cli.Flag{
		resourceGroupFlag(),
		nameFlag("Name of the managed cluster", true),
		&cli.StringFlag{
			Name:     "addons",
			Aliases:  []string{"a"},
			Required: true,
			Usage:    fmt.Sprintf("Comma-separated list of addons: %s", strings.Join(addonNames(), ", ")),
		},
		noWaitFlag(),
	}
	if enable {
		flags = append(flags,
			&cli.StringFlag{Name: "workspace-resource-id", Usage: "Resource ID of a Log Analytics workspace for the monitoring addon"},
			&cli.BoolFlag{
				Name:  "enable-msi-auth-for-monitoring",
				Value: true,
				Usage: "Send monitoring data with managed identity authentication; pass =false to use the workspace key",
			},
			&cli.StringFlag{Name: "subnet-name", Aliases: []string{"s"}, Usage: "Name of an existing subnet for the virtual-node addon"},
			&cli.StringFlag{Name: "appgw-name", Usage: "Name of the application gateway to create or use"},
			&cli.StringFlag{Name: "appgw-subnet-cidr", Usage: "Subnet CIDR for a new application gateway subnet"},
			&cli.StringFlag{Name: "appgw-id", Usage: "Resource ID of an existing application gateway"},
			&cli.StringFlag{Name: "appgw-subnet-id", Usage: "Resource ID of an existing subnet for the application gateway"},
			&cli.StringFlag{Name: "appgw-watch-namespace", Usage: "Comma-separated namespaces the ingress controller watches"},
			&cli.BoolFlag{Name: "enable-sgxquotehelper", Usage: "Enable SGX quote helper for the confcom addon"},
			&cli.BoolFlag{Name: "enable-secret-rotation", Usage: "Enable secret rotation for the keyvault secrets provider"},
			&cli.BoolFlag{Name: "disable-secret-rotation", Usage: "Disable secret rotation for the keyvault secrets provider"},
			&cli.StringFlag{Name: "rotation-poll-interval", Usage: "Secret rotation poll interval, e.g. 2m"},
		)
	}

	return &cli.Command{
		Name:  cmdName,
		Usage: verb + " Kubernetes addons",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rg, err := resourceGroup(cmd, true)
			if err != nil {
				return err
			}
			p, err := resolveProfile(cmd, true)
			if err != nil {
				return err
			}
			clusters, err := newClusterClient(p)
			if err != nil {
				return err
			}

			u := aks.AddonUpdate{
				ResourceGroup: rg,
				Name:          cmd.String(flagName),
				Addons:        cmd.String("addons"),
				CloudName:     p.CloudName,
			}
			if enable {
				u.WorkspaceResourceID = cmd.String("workspace-resource-id")
				u.EnableMSIAuthForMonitoring = cmd.Bool("enable-msi-auth-for-monitoring")
				u.SubnetName = cmd.String("subnet-name")
				u.AppGWName = cmd.String("appgw-name")
				u.AppGWSubnetCIDR = cmd.String("appgw-subnet-cidr")
				u.AppGWID = cmd.String("appgw-id")
				u.AppGWSubnetID = cmd.String("appgw-subnet-id")
				u.AppGWWatchNamespace = cmd.String("appgw-watch-namespace")
				u.EnableSGXQuoteHelper = cmd.Bool("enable-sgxquotehelper")
				u.EnableSecretRotation = cmd.Bool("enable-secret-rotation")
				u.DisableSecretRotation = cmd.Bool("disable-secret-rotation")
				u.RotationPollInterval = cmd.String("rotation-poll-interval")
			}

			update := aks.DisableAddons
			if enable {
				update = aks.EnableAddons
			}
			cluster, err := update(ctx, clusters, u, cmd.Bool(flagNoWait))
			if err != nil || cluster == nil {
				return err
			}
			return writeResult(ctx, cmd, cluster)
		},
	}
}

func aksVerifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check that a kubeconfig context reaches its cluster and report node readiness",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kubeconfig",
				Aliases: []string{"k"},
				Usage:   "Path to the kubeconfig file; defaults to KUBECONFIG or ~/.kube/config",
			},
			&cli.StringFlag{
				Name:  "context",
				Usage: "Kubeconfig context to use; defaults to the current context",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			clientset, _, err := client.BuildKubeClient(cmd.String("kubeconfig"), cmd.String("context"))
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, defaults.K8sRequestTimeout)
			defer cancel()

			res, err := aks.Verify(ctx, clientset)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, res)
		},
	}
}

func clusterClient(cmd *cli.Command) (aks.ClusterClient, error) {
	p, err := resolveProfile(cmd, true)
	if err != nil {
		return nil, err
	}
	return newClusterClient(p)
}

func addonNames() []string {
	names := make([]string, 0, len(aks.Addons))
	for n := range aks.Addons {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

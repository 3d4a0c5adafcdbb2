/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/acr"
	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/profile"
)

// registryClient is the data plane surface the acr commands use.
type registryClient interface {
	Repositories(ctx context.Context) ([]string, error)
	Tags(ctx context.Context, repository string) ([]string, error)
	ManifestShow(ctx context.Context, image acr.Image) (*acr.Manifest, error)
}

// registryRefreshToken trades the signed-in identity for a registry refresh token.
var registryRefreshToken = func(ctx context.Context, p *profile.Profile, loginServer string) (string, error) {
	token, err := p.Credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{p.ResourceManagerAudience()},
	})
	if err != nil {
		return "", err
	}
	return acr.ExchangeToken(ctx, nil, "https://"+loginServer, "", token.Token)
}

func acrCmd() *cli.Command {
	return &cli.Command{
		Name:   "acr",
		Usage:  "Manage private registries with Azure Container Registries",
		Action: groupAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagName,
				Aliases: []string{"n", "registry"},
				Usage:   "Name or login server of the container registry",
			},
			&cli.BoolFlag{
				Name:  "anonymous",
				Usage: "Skip authentication and pull anonymously",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "repository",
				Usage:  "Manage repositories for Azure Container Registries",
				Action: groupAction,
				Commands: []*cli.Command{
					acrRepositoryListCmd(),
					acrShowTagsCmd(),
				},
			},
			{
				Name:   "manifest",
				Usage:  "Manage artifact manifests in Azure Container Registries",
				Action: groupAction,
				Commands: []*cli.Command{
					acrManifestShowCmd(),
				},
			},
		},
	}
}

// acrClient connects to the registry named by --name. Authentication failures fall back
// to anonymous access, which public registries allow.
func acrClient(ctx context.Context, cmd *cli.Command) (string, registryClient, error) {
	if cmd.String(flagName) == "" {
		return "", nil, errors.New(errors.ErrCodeRequiredArgumentMissing,
			"the following arguments are required: --name/-n")
	}
	loginServer := acr.LoginServer(cmd.String(flagName))

	var opts acr.ClientOptions
	if !cmd.Bool("anonymous") {
		p, err := resolveProfile(cmd, false)
		if err != nil {
			return "", nil, err
		}
		token, err := registryRefreshToken(ctx, p, loginServer)
		if err != nil {
			slog.Warn("Unable to get an access token for the registry, trying anonymous access",
				"registry", loginServer, "error", errors.Message(err))
		}
		opts.RefreshToken = token
	}

	client, err := newRegistryClient(loginServer, opts)
	if err != nil {
		return "", nil, err
	}
	return loginServer, client, nil
}

func acrRepositoryListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List repositories in an Azure Container Registry",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithTimeout(ctx, defaults.RegistryTimeout)
			defer cancel()

			_, client, err := acrClient(ctx, cmd)
			if err != nil {
				return err
			}
			repos, err := client.Repositories(ctx)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, repos)
		},
	}
}

func acrShowTagsCmd() *cli.Command {
	return &cli.Command{
		Name:  "show-tags",
		Usage: "Show tags for a repository in an Azure Container Registry",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repository", Usage: "Name of the repository", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithTimeout(ctx, defaults.RegistryTimeout)
			defer cancel()

			_, client, err := acrClient(ctx, cmd)
			if err != nil {
				return err
			}
			tags, err := client.Tags(ctx, cmd.String("repository"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, tags)
		},
	}
}

func acrManifestShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Get a manifest in an Azure Container Registry",
		ArgsUsage: "<repository[:tag|@digest]>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New(errors.ErrCodeRequiredArgumentMissing,
					"usage error: azctl acr manifest show -n REGISTRY REPOSITORY[:TAG|@DIGEST]")
			}
			ctx, cancel := context.WithTimeout(ctx, defaults.RegistryTimeout)
			defer cancel()

			loginServer, client, err := acrClient(ctx, cmd)
			if err != nil {
				return err
			}
			image, err := acr.ParseImage(loginServer, cmd.Args().First())
			if err != nil {
				return err
			}
			manifest, err := client.ManifestShow(ctx, image)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, manifest)
		},
	}
}

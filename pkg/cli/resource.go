/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/armid"
	"github.com/azctl/azctl/pkg/armrest"
	"github.com/azctl/azctl/pkg/errors"
)

// resourcesAPIVersion serves subscriptions and resource groups, which have no provider
// registration to query.
const resourcesAPIVersion = "2021-04-01"

func resourceCmd() *cli.Command {
	return &cli.Command{
		Name:   "resource",
		Usage:  "Manage Azure resources",
		Action: groupAction,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Get the details of one or more resources",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: flagIDs, Usage: "One or more resource IDs", Required: true},
					&cli.StringFlag{Name: "api-version", Usage: "API version of the resource; defaults to the latest stable version"},
				},
				Action: resourceShowAction,
			},
		},
	}
}

func resourceShowAction(ctx context.Context, cmd *cli.Command) error {
	p, err := resolveProfile(cmd, false)
	if err != nil {
		return err
	}
	client := newARMClient(p)
	apiVersion := cmd.String("api-version")

	results, batchErr := runBatch(ctx, cmd.StringSlice(flagIDs), func(ctx context.Context, id string) (any, error) {
		rid, err := armid.Parse(id)
		if err != nil {
			return nil, err
		}
		version := apiVersion
		if version == "" {
			namespace := rid.ResourceType.Namespace
			if strings.EqualFold(namespace, "Microsoft.Resources") {
				version = resourcesAPIVersion
			} else {
				version, err = client.ResolveAPIVersion(ctx, rid.SubscriptionID, namespace, strings.Join(rid.ResourceType.Types, "/"))
				if err != nil {
					return nil, err
				}
			}
		}
		resp, err := client.Get(ctx, rid.String(), version)
		if err != nil {
			return nil, err
		}
		return resp.JSON(), nil
	})

	if len(results) == 1 && batchErr == nil {
		return writeResult(ctx, cmd, results[0])
	}
	if err := writeResult(ctx, cmd, results); err != nil {
		return err
	}
	return batchErr
}

func restCmd() *cli.Command {
	return &cli.Command{
		Name:  "rest",
		Usage: "Invoke a custom request",
		Description: heredoc.Doc(`
			Sends an authenticated request to Azure Resource Manager. A relative --url is
			resolved against the resource manager endpoint of the current cloud.

			Examples:
			  azctl rest --url /subscriptions/{sub}/resourcegroups?api-version=2021-04-01
			  azctl rest -m put --url /subscriptions/{sub}/resourcegroups/rg?api-version=2021-04-01 --body @rg.json
		`),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "method", Aliases: []string{"m"}, Value: "get", Usage: "HTTP request method: delete, get, head, options, patch, post or put"},
			&cli.StringFlag{Name: "url", Aliases: []string{"uri", "u"}, Usage: "Request URL", Required: true},
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Request body; use @{file} to load from a file"},
			&cli.StringSliceFlag{Name: "headers", Usage: "Space-separated headers in KEY=VALUE format"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			method, err := restMethod(cmd.String("method"))
			if err != nil {
				return err
			}
			body, err := restBody(cmd.String("body"))
			if err != nil {
				return err
			}
			p, err := resolveProfile(cmd, false)
			if err != nil {
				return err
			}
			resp, err := newARMClient(p).Send(ctx, armrest.Request{
				Method: method,
				Path:   cmd.String("url"),
				Body:   body,
				Header: parseTags(cmd.StringSlice("headers")),
			})
			if err != nil {
				return err
			}
			if out := resp.JSON(); out != nil {
				return writeResult(ctx, cmd, out)
			}
			return nil
		},
	}
}

func restMethod(m string) (string, error) {
	switch method := strings.ToUpper(m); method {
	case http.MethodDelete, http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodPatch, http.MethodPost, http.MethodPut:
		return method, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"argument --method/-m: invalid choice: '%s'", m)
	}
}

// restBody returns nil for an empty body and the file contents for @path.
func restBody(body string) (any, error) {
	if body == "" {
		return nil, nil
	}
	path, ok := strings.CutPrefix(body, "@")
	if !ok {
		return body, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileOperation, "failed to read request body from "+path, err)
	}
	return data, nil
}

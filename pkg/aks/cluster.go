package aks

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"

	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/kubeconfig"
)

// Show returns the managed cluster.
func Show(ctx context.Context, client ClusterClient, resourceGroup, name string) (*armcontainerservice.ManagedCluster, error) {
	return client.Get(ctx, resourceGroup, name)
}

// SetAddons enables or disables the addons named in u and submits the cluster. With
// noWait set it returns nil once the update is accepted.
func SetAddons(ctx context.Context, client ClusterClient, u AddonUpdate, noWait bool) (*armcontainerservice.ManagedCluster, error) {
	cluster, err := client.Get(ctx, u.ResourceGroup, u.Name)
	if err != nil {
		return nil, err
	}
	if _, err := UpdateAddons(cluster, u); err != nil {
		return nil, err
	}
	slog.Info("updating managed cluster addons",
		"cluster", u.Name, "resourceGroup", u.ResourceGroup, "addons", u.Addons, "enable", u.Enable)
	return client.CreateOrUpdate(ctx, u.ResourceGroup, u.Name, *cluster, !noWait)
}

// EnableAddons enables the addons named in u.
func EnableAddons(ctx context.Context, client ClusterClient, u AddonUpdate, noWait bool) (*armcontainerservice.ManagedCluster, error) {
	u.Enable = true
	return SetAddons(ctx, client, u, noWait)
}

// DisableAddons disables the addons named in u.
func DisableAddons(ctx context.Context, client ClusterClient, u AddonUpdate, noWait bool) (*armcontainerservice.ManagedCluster, error) {
	u.Enable = false
	return SetAddons(ctx, client, u, noWait)
}

// CredentialOptions control GetCredentials.
type CredentialOptions struct {
	Admin       bool
	Path        string
	Overwrite   bool
	ContextName string
	PublicFQDN  bool
	Format      string
	Prompt      kubeconfig.PromptFunc
}

// GetCredentials downloads the cluster kubeconfig and prints or merges it.
func GetCredentials(ctx context.Context, client ClusterClient, resourceGroup, name string, opts CredentialOptions, stdout io.Writer) error {
	req := CredentialRequest{Format: strings.ToLower(opts.Format)}
	if opts.PublicFQDN {
		req.ServerFQDN = "public"
	}
	if req.Format != "" && opts.Admin {
		return errors.New(errors.ErrCodeInvalidArgumentValue,
			"--format can only be specified when requesting clusterUser credential.")
	}

	var (
		creds []*armcontainerservice.CredentialResult
		err   error
	)
	if opts.Admin {
		creds, err = client.AdminCredentials(ctx, resourceGroup, name, req)
	} else {
		creds, err = client.UserCredentials(ctx, resourceGroup, name, req)
	}
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		return errors.New(errors.ErrCodeCLI, "No Kubernetes credentials found.")
	}
	if creds[0] == nil || len(creds[0].Value) == 0 {
		return errors.New(errors.ErrCodeCLI, "Fail to find kubeconfig file.")
	}

	path := opts.Path
	if path == "" {
		path = kubeconfig.DefaultPath()
	}
	return kubeconfig.PrintOrMerge(path, creds[0].Value, kubeconfig.MergeOptions{
		Replace:     opts.Overwrite,
		ContextName: opts.ContextName,
		Prompt:      opts.Prompt,
	}, stdout)
}

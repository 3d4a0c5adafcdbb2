package aks

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"

	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
)

// ClusterClient is the subset of managed cluster operations used by azctl.
type ClusterClient interface {
	Get(ctx context.Context, resourceGroup, name string) (*armcontainerservice.ManagedCluster, error)
	// CreateOrUpdate submits cluster. When wait is false it returns as soon as the
	// operation is accepted and the returned cluster is nil.
	CreateOrUpdate(ctx context.Context, resourceGroup, name string, cluster armcontainerservice.ManagedCluster, wait bool) (*armcontainerservice.ManagedCluster, error)
	UserCredentials(ctx context.Context, resourceGroup, name string, opts CredentialRequest) ([]*armcontainerservice.CredentialResult, error)
	AdminCredentials(ctx context.Context, resourceGroup, name string, opts CredentialRequest) ([]*armcontainerservice.CredentialResult, error)
}

// CredentialRequest selects the kind of kubeconfig returned by the service.
type CredentialRequest struct {
	// ServerFQDN is "public" to get the public FQDN of a private cluster.
	ServerFQDN string
	// Format is "azure" or "exec"; user credentials only.
	Format string
}

// SDKClient implements ClusterClient with the Azure SDK.
type SDKClient struct {
	clusters *armcontainerservice.ManagedClustersClient
}

// NewSDKClient creates an SDKClient for subscription.
func NewSDKClient(subscription string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*SDKClient, error) {
	factory, err := armcontainerservice.NewClientFactory(subscription, cred, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create container service client", err)
	}
	return &SDKClient{clusters: factory.NewManagedClustersClient()}, nil
}

func (c *SDKClient) Get(ctx context.Context, resourceGroup, name string) (*armcontainerservice.ManagedCluster, error) {
	resp, err := c.clusters.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	return &resp.ManagedCluster, nil
}

func (c *SDKClient) CreateOrUpdate(ctx context.Context, resourceGroup, name string, cluster armcontainerservice.ManagedCluster, wait bool) (*armcontainerservice.ManagedCluster, error) {
	poller, err := c.clusters.BeginCreateOrUpdate(ctx, resourceGroup, name, cluster, nil)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	if !wait {
		return nil, nil
	}
	resp, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: defaults.PollInterval})
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	return &resp.ManagedCluster, nil
}

func (c *SDKClient) UserCredentials(ctx context.Context, resourceGroup, name string, req CredentialRequest) ([]*armcontainerservice.CredentialResult, error) {
	opts := &armcontainerservice.ManagedClustersClientListClusterUserCredentialsOptions{}
	if req.ServerFQDN != "" {
		opts.ServerFqdn = &req.ServerFQDN
	}
	if req.Format != "" {
		format := armcontainerservice.Format(req.Format)
		opts.Format = &format
	}
	resp, err := c.clusters.ListClusterUserCredentials(ctx, resourceGroup, name, opts)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	return resp.Kubeconfigs, nil
}

func (c *SDKClient) AdminCredentials(ctx context.Context, resourceGroup, name string, req CredentialRequest) ([]*armcontainerservice.CredentialResult, error) {
	opts := &armcontainerservice.ManagedClustersClientListClusterAdminCredentialsOptions{}
	if req.ServerFQDN != "" {
		opts.ServerFqdn = &req.ServerFQDN
	}
	resp, err := c.clusters.ListClusterAdminCredentials(ctx, resourceGroup, name, opts)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	return resp.Kubeconfigs, nil
}

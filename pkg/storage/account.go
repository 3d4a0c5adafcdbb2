// Package storage lists storage accounts across subscriptions.
package storage

import (
	"context"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/ptr"

	"github.com/azctl/azctl/pkg/armid"
	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
)

// Account is the reshaped view of a storage account.
type Account struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	Subscription      string `json:"subscription" yaml:"subscription"`
	ResourceGroup     string `json:"resourceGroup" yaml:"resourceGroup"`
	Location          string `json:"location" yaml:"location"`
	Kind              string `json:"kind,omitempty" yaml:"kind,omitempty"`
	SKU               string `json:"sku,omitempty" yaml:"sku,omitempty"`
	ProvisioningState string `json:"provisioningState,omitempty" yaml:"provisioningState,omitempty"`
	PrimaryBlob       string `json:"primaryBlobEndpoint,omitempty" yaml:"primaryBlobEndpoint,omitempty"`
}

// AccountLister lists the storage accounts of one subscription.
type AccountLister interface {
	ListAccounts(ctx context.Context, subscription string) ([]Account, error)
}

// ListAccounts lists the accounts of every subscription concurrently. The result is
// sorted by subscription, resource group and name. resourceGroup, when set, keeps only
// the accounts of that group.
func ListAccounts(ctx context.Context, lister AccountLister, resourceGroup string, subscriptions ...string) ([]Account, error) {
	results := make([][]Account, len(subscriptions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaults.BatchConcurrency)
	for i, sub := range subscriptions {
		g.Go(func() error {
			accounts, err := lister.ListAccounts(ctx, sub)
			if err != nil {
				return err
			}
			results[i] = accounts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Account, 0)
	for _, accounts := range results {
		for _, a := range accounts {
			if resourceGroup != "" && !strings.EqualFold(a.ResourceGroup, resourceGroup) {
				continue
			}
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subscription != out[j].Subscription {
			return out[i].Subscription < out[j].Subscription
		}
		if !strings.EqualFold(out[i].ResourceGroup, out[j].ResourceGroup) {
			return strings.ToLower(out[i].ResourceGroup) < strings.ToLower(out[j].ResourceGroup)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GroupByResourceGroup maps resource group names to the account names they hold.
func GroupByResourceGroup(accounts []Account) map[string][]string {
	groups := make(map[string][]string)
	for _, a := range accounts {
		groups[a.ResourceGroup] = append(groups[a.ResourceGroup], a.Name)
	}
	return groups
}

// SDKLister implements AccountLister with armstorage.
type SDKLister struct {
	cred azcore.TokenCredential
	opts *arm.ClientOptions
}

// NewSDKLister returns an SDKLister that authenticates with cred.
func NewSDKLister(cred azcore.TokenCredential, opts *arm.ClientOptions) *SDKLister {
	return &SDKLister{cred: cred, opts: opts}
}

func (l *SDKLister) ListAccounts(ctx context.Context, subscription string) ([]Account, error) {
	factory, err := armstorage.NewClientFactory(subscription, l.cred, l.opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create storage client", err)
	}

	var out []Account
	pager := factory.NewAccountsClient().NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.FromAzureError(err)
		}
		for _, v := range page.Value {
			out = append(out, fromSDKAccount(subscription, v))
		}
	}
	return out, nil
}

func fromSDKAccount(subscription string, v *armstorage.Account) Account {
	a := Account{
		ID:           ptr.Deref(v.ID, ""),
		Name:         ptr.Deref(v.Name, ""),
		Subscription: subscription,
		Location:     ptr.Deref(v.Location, ""),
	}
	a.ResourceGroup = armid.ResourceGroup(a.ID)
	if v.Kind != nil {
		a.Kind = string(*v.Kind)
	}
	if v.SKU != nil && v.SKU.Name != nil {
		a.SKU = string(*v.SKU.Name)
	}
	if p := v.Properties; p != nil {
		if p.ProvisioningState != nil {
			a.ProvisioningState = string(*p.ProvisioningState)
		}
		if p.PrimaryEndpoints != nil {
			a.PrimaryBlob = ptr.Deref(p.PrimaryEndpoints.Blob, "")
		}
	}
	return a
}

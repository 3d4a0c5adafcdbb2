/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/acr"
	"github.com/azctl/azctl/pkg/aks"
	"github.com/azctl/azctl/pkg/appconfig"
	"github.com/azctl/azctl/pkg/armrest"
	"github.com/azctl/azctl/pkg/monitor"
	"github.com/azctl/azctl/pkg/profile"
	"github.com/azctl/azctl/pkg/role"
	"github.com/azctl/azctl/pkg/storage"
)

// resolveProfile builds the identity, cloud and subscription for cmd.
func resolveProfile(cmd *cli.Command, requireSubscription bool) (*profile.Profile, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return profile.Resolve(profile.Options{
		Subscription:        cmd.String(flagSubscription),
		Config:              cfg,
		Credential:          credentialOverride,
		RequireSubscription: requireSubscription,
	})
}

// Client constructors. Tests replace them with fakes.
var (
	credentialOverride azcore.TokenCredential

	newARMClient = func(p *profile.Profile) *armrest.Client {
		return armrest.New(p.Credential, armrest.Options{
			Endpoint: p.ResourceManagerEndpoint(),
			Audience: p.ResourceManagerAudience(),
		})
	}

	newClusterClient = func(p *profile.Profile) (aks.ClusterClient, error) {
		return aks.NewSDKClient(p.Subscription, p.Credential, p.ARMClientOptions())
	}

	newAppConfigStore = func(connectionString, endpoint string, cred azcore.TokenCredential) (appconfig.Store, error) {
		return appconfig.NewStore(connectionString, endpoint, cred)
	}

	newRoleClient = func(p *profile.Profile) (role.AssignmentClient, role.DefinitionLister, error) {
		c, err := role.NewSDKClient(p.Subscription, p.Credential, p.ARMClientOptions())
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	}

	newAccountLister = func(p *profile.Profile) storage.AccountLister {
		return storage.NewSDKLister(p.Credential, p.ARMClientOptions())
	}

	newSettingsLister = func(p *profile.Profile) (monitor.SettingsLister, error) {
		return monitor.NewSDKSettingsLister(p.Subscription, p.Credential, p.ARMClientOptions())
	}

	newLogsQuerier = func(p *profile.Profile) (monitor.LogsQuerier, error) {
		return monitor.NewLogsClient(p.Credential)
	}

	newRegistryClient = func(loginServer string, opts acr.ClientOptions) (registryClient, error) {
		return acr.NewClient(loginServer, opts)
	}
)

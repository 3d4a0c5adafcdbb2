// Package profile resolves the Azure identity, cloud and subscription a command runs
// against.
package profile

import (
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
)

// EnvSubscriptionID is consulted when neither --subscription nor the configuration
// names a subscription.
const EnvSubscriptionID = "AZURE_SUBSCRIPTION_ID"

// Cloud names accepted in [cloud] name.
const (
	CloudPublic     = "AzureCloud"
	CloudChina      = "AzureChinaCloud"
	CloudUSGov      = "AzureUSGovernment"
	CloudUSSec      = "ussec"
	CloudUSNat      = "usnat"
	defaultCloudKey = CloudPublic
)

// Profile is the resolved execution context of a command.
type Profile struct {
	CloudName    string
	Subscription string
	Credential   azcore.TokenCredential
	Cloud        cloud.Configuration
}

// Options feeds Resolve.
type Options struct {
	// Subscription from --subscription.
	Subscription string
	// Config supplies defaults.subscription and cloud.name.
	Config *config.Config
	// Credential is used as is when set, otherwise DefaultAzureCredential is built.
	Credential azcore.TokenCredential
	// RequireSubscription fails resolution when no subscription can be found.
	RequireSubscription bool
}

// Resolve builds a Profile from flags, environment and configuration.
func Resolve(opts Options) (*Profile, error) {
	p := &Profile{
		CloudName: opts.Config.GetDefault(config.SectionCloud, config.KeyCloudName, defaultCloudKey),
	}
	p.Cloud = CloudConfiguration(p.CloudName)

	p.Subscription = firstNonEmpty(
		opts.Subscription,
		os.Getenv(EnvSubscriptionID),
		opts.Config.Get(config.SectionDefaults, config.KeySubscription),
	)
	if p.Subscription == "" && opts.RequireSubscription {
		return nil, errors.New(errors.ErrCodeRequiredArgumentMissing,
			"no subscription specified: use --subscription, set AZURE_SUBSCRIPTION_ID or run 'azctl config set defaults.subscription=<id>'")
	}

	p.Credential = opts.Credential
	if p.Credential == nil {
		cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			ClientOptions: policy.ClientOptions{Cloud: p.Cloud},
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnauthorized, "failed to create Azure credential", err)
		}
		p.Credential = cred
	}
	return p, nil
}

// ARMClientOptions returns SDK client options bound to the profile's cloud.
func (p *Profile) ARMClientOptions() *arm.ClientOptions {
	return &arm.ClientOptions{ClientOptions: policy.ClientOptions{Cloud: p.Cloud}}
}

// ResourceManagerEndpoint returns the ARM endpoint of the profile's cloud.
func (p *Profile) ResourceManagerEndpoint() string {
	return p.Cloud.Services[cloud.ResourceManager].Endpoint
}

// ResourceManagerAudience returns the token scope for ARM calls.
func (p *Profile) ResourceManagerAudience() string {
	aud := p.Cloud.Services[cloud.ResourceManager].Audience
	return strings.TrimSuffix(aud, "/") + "/.default"
}

// CloudConfiguration maps a cloud name to its SDK configuration. Unknown and
// air-gapped clouds fall back to the public cloud endpoints.
func CloudConfiguration(name string) cloud.Configuration {
	switch strings.ToLower(name) {
	case strings.ToLower(CloudChina):
		return cloud.AzureChina
	case strings.ToLower(CloudUSGov):
		return cloud.AzureGovernment
	default:
		return cloud.AzurePublic
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

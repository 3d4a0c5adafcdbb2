package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
)

type staticCredential struct{}

func (staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "token"}, nil
}

func loadConfig(t *testing.T, values map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)
	for k, v := range values {
		section, key, err := config.SplitName(k)
		require.NoError(t, err)
		cfg.Set(section, key, v)
	}
	return cfg
}

func TestResolve_SubscriptionPrecedence(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"defaults.subscription": "from-config"})

	t.Setenv(EnvSubscriptionID, "")
	p, err := Resolve(Options{Config: cfg, Credential: staticCredential{}})
	require.NoError(t, err)
	assert.Equal(t, "from-config", p.Subscription)

	t.Setenv(EnvSubscriptionID, "from-env")
	p, err = Resolve(Options{Config: cfg, Credential: staticCredential{}})
	require.NoError(t, err)
	assert.Equal(t, "from-env", p.Subscription)

	p, err = Resolve(Options{Subscription: "from-flag", Config: cfg, Credential: staticCredential{}})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", p.Subscription)
}

func TestResolve_RequireSubscription(t *testing.T) {
	t.Setenv(EnvSubscriptionID, "")
	t.Setenv("AZCTL_DEFAULTS_SUBSCRIPTION", "")

	_, err := Resolve(Options{Config: loadConfig(t, nil), Credential: staticCredential{}, RequireSubscription: true})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRequiredArgumentMissing))
}

func TestResolve_Cloud(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"cloud.name": "AzureChinaCloud"})

	p, err := Resolve(Options{Subscription: "sub", Config: cfg, Credential: staticCredential{}})
	require.NoError(t, err)

	assert.Equal(t, "AzureChinaCloud", p.CloudName)
	assert.Equal(t, cloud.AzureChina.Services[cloud.ResourceManager].Endpoint, p.ResourceManagerEndpoint())
	assert.Contains(t, p.ResourceManagerAudience(), "/.default")
	assert.NotNil(t, p.ARMClientOptions())
}

func TestCloudConfiguration(t *testing.T) {
	assert.Equal(t, cloud.AzurePublic.ActiveDirectoryAuthorityHost, CloudConfiguration("").ActiveDirectoryAuthorityHost)
	assert.Equal(t, cloud.AzureGovernment.ActiveDirectoryAuthorityHost, CloudConfiguration("azureusgovernment").ActiveDirectoryAuthorityHost)
	assert.Equal(t, cloud.AzurePublic.ActiveDirectoryAuthorityHost, CloudConfiguration(CloudUSSec).ActiveDirectoryAuthorityHost)
}

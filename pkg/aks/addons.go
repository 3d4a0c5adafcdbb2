package aks

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
	"k8s.io/utils/ptr"

	"github.com/azctl/azctl/pkg/errors"
)

// Addon profile keys used by the managed cluster API.
const (
	AddonHTTPApplicationRouting = "httpApplicationRouting"
	AddonMonitoring             = "omsagent"
	AddonVirtualNode            = "aciConnector"
	AddonKubeDashboard          = "kubeDashboard"
	AddonAzurePolicy            = "azurepolicy"
	AddonIngressAppGW           = "ingressApplicationGateway"
	AddonConfcom                = "ACCSGXDevicePlugin"
	AddonOpenServiceMesh        = "openServiceMesh"
	AddonKeyVaultSecrets        = "azureKeyvaultSecretsProvider"
	AddonGitOps                 = "gitops"
	AddonWebAppRouting          = "webAppRouting"
)

// Addon configuration keys.
const (
	ConfigWorkspaceResourceID   = "logAnalyticsWorkspaceResourceID"
	ConfigUseAADAuth            = "useAADAuth"
	ConfigVirtualNodeSubnetName = "SubnetName"
	ConfigAppGWName             = "applicationGatewayName"
	ConfigAppGWID               = "applicationGatewayId"
	ConfigAppGWSubnetCIDR       = "subnetCIDR"
	ConfigAppGWSubnetID         = "subnetId"
	ConfigAppGWWatchNamespace   = "watchNamespace"
	ConfigSGXQuoteHelper        = "ACCSGXQuoteHelperEnabled"
	ConfigSecretRotation        = "enableSecretRotation"
	ConfigRotationPollInterval  = "rotationPollInterval"

	defaultRotationPollInterval = "2m"
	virtualNodeOSType           = "Linux"
)

// Addons maps the addon names accepted on the command line to addon profile keys.
var Addons = map[string]string{
	"http_application_routing":        AddonHTTPApplicationRouting,
	"monitoring":                      AddonMonitoring,
	"virtual-node":                    AddonVirtualNode,
	"kube-dashboard":                  AddonKubeDashboard,
	"azure-policy":                    AddonAzurePolicy,
	"ingress-appgw":                   AddonIngressAppGW,
	"confcom":                         AddonConfcom,
	"open-service-mesh":               AddonOpenServiceMesh,
	"azure-keyvault-secrets-provider": AddonKeyVaultSecrets,
	"gitops":                          AddonGitOps,
	"web_application_routing":         AddonWebAppRouting,
}

// AddonUpdate describes an enable-addons or disable-addons request.
type AddonUpdate struct {
	ResourceGroup string
	Name          string
	// Addons is the comma-separated list of addon names.
	Addons string
	Enable bool

	WorkspaceResourceID        string
	EnableMSIAuthForMonitoring bool
	// CloudName is the active cloud; MSI auth is unavailable for user-assigned
	// identities in the ussec and usnat clouds.
	CloudName string

	SubnetName string

	AppGWName           string
	AppGWSubnetCIDR     string
	AppGWID             string
	AppGWSubnetID       string
	AppGWWatchNamespace string

	EnableSGXQuoteHelper bool

	EnableSecretRotation  bool
	DisableSecretRotation bool
	RotationPollInterval  string
}

// UpdateAddons applies u to cluster's addon profiles in place and returns cluster.
func UpdateAddons(cluster *armcontainerservice.ManagedCluster, u AddonUpdate) (*armcontainerservice.ManagedCluster, error) {
	if cluster.Properties == nil {
		cluster.Properties = &armcontainerservice.ManagedClusterProperties{}
	}
	profiles := cluster.Properties.AddonProfiles
	if profiles == nil {
		profiles = map[string]*armcontainerservice.ManagedClusterAddonProfile{}
	}

	for _, arg := range strings.Split(u.Addons, ",") {
		addon, ok := Addons[arg]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeCLI, "Invalid addon name: %s.", arg)
		}
		if addon == AddonVirtualNode {
			addon += virtualNodeOSType
		}

		canonicalizeKey(profiles, addon)

		if u.Enable {
			profile, err := enableAddon(cluster, profiles, addon, u)
			if err != nil {
				return nil, err
			}
			profiles[addon] = profile
		} else {
			if profiles[addon] == nil {
				if addon != AddonKubeDashboard {
					return nil, errors.Newf(errors.ErrCodeCLI, "The addon %s is not installed.", addon)
				}
				profiles[addon] = &armcontainerservice.ManagedClusterAddonProfile{Enabled: ptr.To(false)}
			}
			profiles[addon].Config = nil
		}
		profiles[addon].Enabled = ptr.To(u.Enable)
	}

	cluster.Properties.AddonProfiles = profiles
	cluster.Properties.ServicePrincipalProfile = nil
	return cluster, nil
}

// canonicalizeKey renames a profile key that differs from addon only by case. A null
// profile under another casing is dropped.
func canonicalizeKey(profiles map[string]*armcontainerservice.ManagedClusterAddonProfile, addon string) {
	for key, profile := range profiles {
		if key == addon || !strings.EqualFold(key, addon) {
			continue
		}
		delete(profiles, key)
		if profile != nil {
			profiles[addon] = profile
		}
	}
}

func enableAddon(cluster *armcontainerservice.ManagedCluster,
	profiles map[string]*armcontainerservice.ManagedClusterAddonProfile,
	addon string, u AddonUpdate) (*armcontainerservice.ManagedClusterAddonProfile, error) {
	profile, ok := profiles[addon]
	if !ok || profile == nil {
		profile = &armcontainerservice.ManagedClusterAddonProfile{Enabled: ptr.To(false)}
	}
	enabled := ptr.Deref(profile.Enabled, false)

	switch addon {
	case AddonMonitoring:
		if enabled {
			return nil, errors.New(errors.ErrCodeCLI,
				"The monitoring addon is already enabled for this managed cluster.\n"+
					`To change monitoring configuration, run "azctl aks disable-addons -a monitoring" `+
					"before enabling it again.")
		}
		workspace := NormalizeWorkspaceID(u.WorkspaceResourceID)
		if workspace == "" {
			return nil, errors.New(errors.ErrCodeRequiredArgumentMissing,
				"the monitoring addon requires --workspace-resource-id")
		}
		msiAuth := u.EnableMSIAuthForMonitoring
		if msiAuth && isAirGappedCloud(u.CloudName) && hasUserAssignedIdentity(cluster) {
			slog.Warn(fmt.Sprintf("--enable-msi-auth-for-monitoring is not supported in %s cloud and continuing monitoring enablement without this flag.", u.CloudName))
			msiAuth = false
		}
		profile.Config = map[string]*string{
			ConfigWorkspaceResourceID: ptr.To(workspace),
			ConfigUseAADAuth:          ptr.To(boolString(msiAuth)),
		}

	case AddonVirtualNode + virtualNodeOSType:
		if enabled {
			return nil, errors.Newf(errors.ErrCodeCLI,
				"The virtual-node addon is already enabled for this managed cluster.\n"+
					`To change virtual-node configuration, run "azctl aks disable-addons -a virtual-node -g %s" `+
					"before enabling it again.", u.ResourceGroup)
		}
		if u.SubnetName == "" {
			return nil, errors.New(errors.ErrCodeCLI, "The aci-connector addon requires setting a subnet name.")
		}
		profile.Config = map[string]*string{ConfigVirtualNodeSubnetName: ptr.To(u.SubnetName)}

	case AddonIngressAppGW:
		if enabled {
			return nil, errors.Newf(errors.ErrCodeCLI,
				"The ingress-appgw addon is already enabled for this managed cluster.\n"+
					`To change ingress-appgw configuration, run "azctl aks disable-addons -a ingress-appgw -n %s -g %s" `+
					"before enabling it again.", u.Name, u.ResourceGroup)
		}
		config := map[string]*string{}
		setIfNotEmpty(config, ConfigAppGWName, u.AppGWName)
		setIfNotEmpty(config, ConfigAppGWSubnetCIDR, u.AppGWSubnetCIDR)
		setIfNotEmpty(config, ConfigAppGWID, u.AppGWID)
		setIfNotEmpty(config, ConfigAppGWSubnetID, u.AppGWSubnetID)
		setIfNotEmpty(config, ConfigAppGWWatchNamespace, u.AppGWWatchNamespace)
		profile = &armcontainerservice.ManagedClusterAddonProfile{Enabled: ptr.To(true), Config: config}

	case AddonConfcom:
		if enabled {
			return nil, errors.Newf(errors.ErrCodeValidation,
				"The confcom addon is already enabled for this managed cluster. "+
					`To change confcom configuration, run "azctl aks disable-addons -a confcom -n %s -g %s" `+
					"before enabling it again.", u.Name, u.ResourceGroup)
		}
		profile = &armcontainerservice.ManagedClusterAddonProfile{
			Enabled: ptr.To(true),
			Config:  map[string]*string{ConfigSGXQuoteHelper: ptr.To(boolString(u.EnableSGXQuoteHelper))},
		}

	case AddonOpenServiceMesh:
		if enabled {
			return nil, errors.Newf(errors.ErrCodeAzureInternal,
				"The open-service-mesh addon is already enabled for this managed cluster.\n"+
					` To change open-service-mesh configuration, run "azctl aks disable-addons -a open-service-mesh -n %s -g %s" `+
					"before enabling it again.", u.Name, u.ResourceGroup)
		}
		profile = &armcontainerservice.ManagedClusterAddonProfile{Enabled: ptr.To(true), Config: map[string]*string{}}

	case AddonKeyVaultSecrets:
		if enabled {
			return nil, errors.Newf(errors.ErrCodeArgumentUsage,
				"The azure-keyvault-secrets-provider addon is already enabled for this managed cluster.\n"+
					`To change azure-keyvault-secrets-provider configuration, run "azctl aks disable-addons -a azure-keyvault-secrets-provider -n %s -g %s" `+
					"before enabling it again.", u.Name, u.ResourceGroup)
		}
		rotation := "false"
		if u.EnableSecretRotation {
			rotation = "true"
		}
		if u.DisableSecretRotation {
			rotation = "false"
		}
		interval := defaultRotationPollInterval
		if u.RotationPollInterval != "" {
			interval = u.RotationPollInterval
		}
		profile = &armcontainerservice.ManagedClusterAddonProfile{
			Enabled: ptr.To(true),
			Config: map[string]*string{
				ConfigSecretRotation:       ptr.To(rotation),
				ConfigRotationPollInterval: ptr.To(interval),
			},
		}
	}
	return profile, nil
}

// NormalizeWorkspaceID trims a Log Analytics workspace resource ID and gives it exactly
// one leading slash and no trailing slash.
func NormalizeWorkspaceID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if !strings.HasPrefix(id, "/") {
		id = "/" + id
	}
	return strings.TrimRight(id, "/")
}

func isAirGappedCloud(name string) bool {
	return strings.EqualFold(name, "ussec") || strings.EqualFold(name, "usnat")
}

func hasUserAssignedIdentity(cluster *armcontainerservice.ManagedCluster) bool {
	if cluster.Identity == nil || cluster.Identity.Type == nil {
		return false
	}
	return strings.EqualFold(string(*cluster.Identity.Type), string(armcontainerservice.ResourceIdentityTypeUserAssigned))
}

func setIfNotEmpty(config map[string]*string, key, value string) {
	if value != "" {
		config[key] = ptr.To(value)
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

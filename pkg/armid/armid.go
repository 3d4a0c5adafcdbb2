// Package armid parses and builds Azure Resource Manager resource IDs.
package armid

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"

	"github.com/azctl/azctl/pkg/errors"
)

const subscriptionType = "Microsoft.Resources/subscriptions"

// Child is a nested resource segment below the top-level resource.
type Child struct {
	Type string
	Name string
}

// Parts describe a resource ID. Only Subscription is mandatory.
type Parts struct {
	Subscription  string
	ResourceGroup string
	Namespace     string
	Type          string
	Name          string
	Children      []Child
}

// Parse parses id. Malformed IDs yield an INVALID_ARGUMENT_VALUE error.
func Parse(id string) (*arm.ResourceID, error) {
	rid, err := arm.ParseResourceID(strings.TrimSpace(id))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue,
			"invalid resource ID \""+id+"\"", err)
	}
	return rid, nil
}

// IsValid reports whether id parses and names something below a subscription.
func IsValid(id string) bool {
	rid, err := arm.ParseResourceID(strings.TrimSpace(id))
	if err != nil {
		return false
	}
	if rid.SubscriptionID == "" {
		return false
	}
	return rid.ResourceGroupName != "" || rid.ResourceType.String() != subscriptionType
}

// Build renders p as a resource ID.
func Build(p Parts) string {
	var b strings.Builder
	b.WriteString("/subscriptions/")
	b.WriteString(p.Subscription)
	if p.ResourceGroup != "" {
		b.WriteString("/resourceGroups/")
		b.WriteString(p.ResourceGroup)
	}
	if p.Namespace == "" || p.Type == "" || p.Name == "" {
		return b.String()
	}
	b.WriteString("/providers/")
	b.WriteString(p.Namespace + "/" + p.Type + "/" + p.Name)
	for _, c := range p.Children {
		if c.Type == "" || c.Name == "" {
			break
		}
		b.WriteString("/" + c.Type + "/" + c.Name)
	}
	return b.String()
}

// SubscriptionScope returns /subscriptions/{sub}.
func SubscriptionScope(subscription string) string {
	return Build(Parts{Subscription: subscription})
}

// ResourceGroupScope returns /subscriptions/{sub}/resourceGroups/{rg}.
func ResourceGroupScope(subscription, resourceGroup string) string {
	return Build(Parts{Subscription: subscription, ResourceGroup: resourceGroup})
}

// ResourceGroup returns the resource group segment of id, or "".
func ResourceGroup(id string) string {
	rid, err := arm.ParseResourceID(id)
	if err != nil {
		return ""
	}
	return rid.ResourceGroupName
}

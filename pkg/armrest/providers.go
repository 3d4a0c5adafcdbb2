package armrest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/azctl/azctl/pkg/errors"
)

const providersAPIVersion = "2021-04-01"

type providerResponse struct {
	Namespace     string `json:"namespace"`
	ResourceTypes []struct {
		ResourceType string   `json:"resourceType"`
		APIVersions  []string `json:"apiVersions"`
	} `json:"resourceTypes"`
}

// ResolveAPIVersion looks up the newest API version of namespace/resourceType, preferring
// stable versions over previews.
func (c *Client) ResolveAPIVersion(ctx context.Context, subscription, namespace, resourceType string) (string, error) {
	var provider providerResponse
	path := fmt.Sprintf("/subscriptions/%s/providers/%s", subscription, namespace)
	if err := c.GetJSON(ctx, path, providersAPIVersion, &provider); err != nil {
		return "", err
	}

	for _, rt := range provider.ResourceTypes {
		if !strings.EqualFold(rt.ResourceType, resourceType) {
			continue
		}
		if v := latestAPIVersion(rt.APIVersions); v != "" {
			return v, nil
		}
	}
	return "", errors.Newf(errors.ErrCodeResourceNotFound,
		"no API version found for resource type %s/%s", namespace, resourceType)
}

func latestAPIVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	sorted := append([]string(nil), versions...)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
	for _, v := range sorted {
		if !strings.Contains(strings.ToLower(v), "preview") {
			return v
		}
	}
	return sorted[0]
}

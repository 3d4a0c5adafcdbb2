package acr

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	mediaTypeDockerManifest     = "application/vnd.docker.distribution.manifest.v2+json"
	mediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
)

// ClientOptions configure a Client.
type ClientOptions struct {
	// RefreshToken is an ACR refresh token from ExchangeToken. Empty means anonymous.
	RefreshToken string
	// PlainHTTP talks to the registry over http.
	PlainHTTP  bool
	HTTPClient *http.Client
}

// Client lists repositories, tags and manifests of one registry.
type Client struct {
	registry *remote.Registry
}

// NewClient returns a Client for loginServer.
func NewClient(loginServer string, opts ClientOptions) (*Client, error) {
	reg, err := remote.NewRegistry(loginServer)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue, "invalid login server \""+loginServer+"\"", err)
	}
	reg.PlainHTTP = opts.PlainHTTP

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = retry.DefaultClient
	}
	client := &auth.Client{
		Client: httpClient,
		Cache:  auth.NewCache(),
	}
	if opts.RefreshToken != "" {
		client.Credential = auth.StaticCredential(reg.Reference.Registry, auth.Credential{
			Username:     NullUsername,
			RefreshToken: opts.RefreshToken,
		})
	}
	client.SetUserAgent("azctl")
	reg.Client = client

	return &Client{registry: reg}, nil
}

// Repositories lists every repository, sorted.
func (c *Client) Repositories(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	err := c.registry.Repositories(ctx, "", func(repos []string) error {
		out = append(out, repos...)
		return nil
	})
	if err != nil {
		return nil, wrapRegistryError("failed to list repositories", err)
	}
	sort.Strings(out)
	return out, nil
}

// Tags lists the tags of repository, sorted.
func (c *Client) Tags(ctx context.Context, repository string) ([]string, error) {
	repo, err := c.registry.Repository(ctx, repository)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue, "invalid repository \""+repository+"\"", err)
	}

	out := make([]string, 0)
	err = repo.Tags(ctx, "", func(tags []string) error {
		out = append(out, tags...)
		return nil
	})
	if err != nil {
		return nil, wrapRegistryError("failed to list tags of "+repository, err)
	}
	sort.Strings(out)
	return out, nil
}

// Manifest is a fetched manifest. Exactly one of Image and Index is set.
type Manifest struct {
	Descriptor ocispec.Descriptor `json:"descriptor" yaml:"descriptor"`
	Image      *ocispec.Manifest  `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Index      *ocispec.Index     `json:"index,omitempty" yaml:"index,omitempty"`
}

// ManifestShow fetches the manifest image points to.
func (c *Client) ManifestShow(ctx context.Context, image Image) (*Manifest, error) {
	repo, err := c.registry.Repository(ctx, image.Repository)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue, "invalid repository \""+image.Repository+"\"", err)
	}

	desc, rc, err := repo.FetchReference(ctx, image.Reference())
	if err != nil {
		return nil, wrapRegistryError("failed to fetch manifest "+image.String(), err)
	}
	defer rc.Close()

	raw, err := content.ReadAll(rc, desc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAzureInternal, "failed to read manifest "+image.String(), err)
	}

	out := &Manifest{Descriptor: desc}
	switch desc.MediaType {
	case ocispec.MediaTypeImageIndex, mediaTypeDockerManifestList:
		out.Index = &ocispec.Index{}
		err = json.Unmarshal(raw, out.Index)
	case ocispec.MediaTypeImageManifest, mediaTypeDockerManifest:
		out.Image = &ocispec.Manifest{}
		err = json.Unmarshal(raw, out.Image)
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unsupported manifest media type %q", desc.MediaType)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAzureInternal, "failed to decode manifest "+image.String(), err)
	}
	return out, nil
}

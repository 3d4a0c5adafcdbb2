// Package acr talks to Azure Container Registry data plane endpoints.
package acr

import (
	"strings"

	"github.com/distribution/reference"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	// DefaultSuffix is the login server suffix of the public cloud.
	DefaultSuffix = ".azurecr.io"

	defaultTag = "latest"
)

// Image is a parsed image reference.
type Image struct {
	Registry   string `json:"registry" yaml:"registry"`
	Repository string `json:"repository" yaml:"repository"`
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Digest     string `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Reference returns the tag or digest part.
func (i Image) Reference() string {
	if i.Digest != "" {
		return i.Digest
	}
	return i.Tag
}

func (i Image) String() string {
	s := i.Registry + "/" + i.Repository
	if i.Digest != "" {
		return s + "@" + i.Digest
	}
	return s + ":" + i.Tag
}

// LoginServer turns a registry name into its login server. Values that already carry a
// domain are returned lower-cased.
func LoginServer(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(name, ".") {
		return name
	}
	return name + DefaultSuffix
}

// ParseImage parses image. A name without a registry host is resolved against
// loginServer. A reference with neither tag nor digest gets the latest tag.
func ParseImage(loginServer, image string) (Image, error) {
	if !hasDomain(image) {
		image = loginServer + "/" + strings.TrimPrefix(image, "/")
	}

	named, err := reference.ParseNamed(image)
	if err != nil {
		return Image{}, errors.Wrap(errors.ErrCodeInvalidArgumentValue, "invalid image reference \""+image+"\"", err)
	}

	out := Image{Registry: reference.Domain(named), Repository: reference.Path(named)}
	if digested, ok := named.(reference.Digested); ok {
		out.Digest = digested.Digest().String()
	}
	if tagged, ok := named.(reference.Tagged); ok {
		out.Tag = tagged.Tag()
	}
	if out.Tag == "" && out.Digest == "" {
		out.Tag = defaultTag
	}
	return out, nil
}

func hasDomain(image string) bool {
	first, _, found := strings.Cut(image, "/")
	if !found {
		return false
	}
	return strings.ContainsAny(first, ".:") || first == "localhost"
}

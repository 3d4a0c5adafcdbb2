/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package kubeconfig merges cluster credentials into a local kubeconfig file.
//
// Configurations are handled in the versioned v1 model so that the order of clusters,
// users and contexts survives a load/merge/write cycle. Entries are matched by name:
// identical entries are replaced silently, conflicting ones only with consent.
package kubeconfig

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	clientcmdapiv1 "k8s.io/client-go/tools/clientcmd/api/v1"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/yaml"

	"github.com/azctl/azctl/pkg/errors"
)

// Config is a kubeconfig document.
type Config = clientcmdapiv1.Config

// Section names, as they appear in the file.
const (
	sectionClusters = "clusters"
	sectionUsers    = "users"
	sectionContexts = "contexts"
)

// DefaultPath returns the first entry of KUBECONFIG, or ~/.kube/config.
func DefaultPath() string {
	if env := os.Getenv("KUBECONFIG"); env != "" {
		if first := filepath.SplitList(env); len(first) > 0 && first[0] != "" {
			return first[0]
		}
	}
	return filepath.Join(homedir.HomeDir(), ".kube", "config")
}

// Load reads path. It returns a nil Config for an empty file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Newf(errors.ErrCodeCLI, "%s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileOperation, fmt.Sprintf("failed to read %s", path), err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeCLI, "Error parsing %s (%v)", path, err)
	}
	return cfg, nil
}

// Parse decodes a kubeconfig document. Blank input yields a nil Config.
func Parse(data []byte) (*Config, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to encode kubeconfig", err)
	}
	return data, nil
}

// presentSections returns the top-level section names present in data, used to tell
// a missing section from an empty one.
func presentSections(data []byte) map[string]bool {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(map[string]bool, len(raw))
	for k := range raw {
		out[k] = true
	}
	return out
}

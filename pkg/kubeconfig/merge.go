package kubeconfig

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/equality"
	clientcmdapiv1 "k8s.io/client-go/tools/clientcmd/api/v1"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	adminUserPrefix    = "clusterAdmin"
	adminContextSuffix = "-admin"
)

// PromptFunc asks the user a yes/no question.
type PromptFunc func(question string) (bool, error)

// MergeOptions control Merge.
type MergeOptions struct {
	// Replace overwrites conflicting entries without asking.
	Replace bool
	// ContextName renames the first context and cluster of the addition.
	ContextName string
	// Prompt is asked before a conflicting entry is overwritten. Nil means "no".
	Prompt PromptFunc
	// present lists the sections found in the existing file.
	present map[string]bool
}

// Merge merges addition into existing and returns the result. existing is modified
// in place when non-nil. The result's current context is the addition's.
func Merge(existing, addition *Config, opts MergeOptions) (*Config, error) {
	if addition == nil {
		return nil, errors.New(errors.ErrCodeCLI, "failed to load additional configuration")
	}

	if opts.ContextName != "" {
		renameFirst(addition, opts.ContextName)
	}
	renameAdminContext(addition)

	if existing == nil {
		return addition, nil
	}

	if err := mergeSection(sectionClusters, &existing.Clusters, addition.Clusters, opts,
		func(c clientcmdapiv1.NamedCluster) string { return c.Name }); err != nil {
		return nil, err
	}
	if err := mergeSection(sectionUsers, &existing.AuthInfos, addition.AuthInfos, opts,
		func(u clientcmdapiv1.NamedAuthInfo) string { return u.Name }); err != nil {
		return nil, err
	}
	if err := mergeSection(sectionContexts, &existing.Contexts, addition.Contexts, opts,
		func(c clientcmdapiv1.NamedContext) string { return c.Name }); err != nil {
		return nil, err
	}

	existing.CurrentContext = addition.CurrentContext
	return existing, nil
}

func renameFirst(cfg *Config, name string) {
	if len(cfg.Contexts) > 0 {
		cfg.Contexts[0].Name = name
		cfg.Contexts[0].Context.Cluster = name
	}
	if len(cfg.Clusters) > 0 {
		cfg.Clusters[0].Name = name
	}
	cfg.CurrentContext = name
}

// renameAdminContext keeps admin credentials from overwriting the user context of the
// same cluster.
func renameAdminContext(cfg *Config) {
	for i := range cfg.Contexts {
		if strings.HasPrefix(cfg.Contexts[i].Context.AuthInfo, adminUserPrefix) {
			cfg.Contexts[i].Name += adminContextSuffix
			cfg.CurrentContext = cfg.Contexts[i].Name
			return
		}
	}
}

func mergeSection[T any](section string, existing *[]T, addition []T, opts MergeOptions, name func(T) string) error {
	if len(addition) == 0 {
		return nil
	}
	if opts.present != nil && !opts.present[section] {
		return errors.Newf(errors.ErrCodeFileOperation,
			"No such key '%s' in existing config, please confirm whether it is a valid config file. "+
				"May back up this config file, then delete it and attempt to merge it again.", section)
	}
	if len(*existing) == 0 {
		*existing = append([]T(nil), addition...)
		return nil
	}

	for _, item := range addition {
		for j, current := range *existing {
			if name(current) != name(item) {
				continue
			}
			if !opts.Replace && !equality.Semantic.DeepEqual(current, item) {
				ok, err := ask(opts.Prompt, fmt.Sprintf(
					"A different object named %s already exists in your kubeconfig file.\nOverwrite?", name(item)))
				if err != nil {
					return err
				}
				if !ok {
					return errors.Newf(errors.ErrCodeCLI,
						"A different object named %s already exists in %s in your kubeconfig file.", name(item), section)
				}
			}
			*existing = append((*existing)[:j], (*existing)[j+1:]...)
			break
		}
		*existing = append(*existing, item)
	}
	return nil
}

func ask(prompt PromptFunc, question string) (bool, error) {
	if prompt == nil {
		return false, nil
	}
	return prompt(question)
}

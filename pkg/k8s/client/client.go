// Package client builds Kubernetes clients from kubeconfig files written by
// `azctl aks get-credentials`.
package client

import (
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/kubeconfig"
)

// BuildKubeClient creates a Kubernetes client from the given kubeconfig file and context.
//
// Parameters:
//   - path: kubeconfig file. If empty, the first entry of KUBECONFIG is used, then
//     ~/.kube/config.
//   - contextName: context to use. If empty, the file's current context is used.
//
// Example:
//
//	clientset, _, err := client.BuildKubeClient("", "demo-admin")
//	if err != nil {
//	    return err
//	}
func BuildKubeClient(path, contextName string) (*kubernetes.Clientset, *rest.Config, error) {
	config, err := RESTConfig(path, contextName)
	if err != nil {
		return nil, nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, "failed to create kubernetes client", err)
	}
	return clientset, config, nil
}

// RESTConfig resolves the client configuration for contextName in the kubeconfig at path.
func RESTConfig(path, contextName string) (*rest.Config, error) {
	if path == "" {
		path = kubeconfig.DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Newf(errors.ErrCodeFileOperation, "%s does not exist", path)
	}

	rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		if clientcmd.IsConfigurationInvalid(err) && contextName != "" {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue,
				"context \""+contextName+"\" is not usable", err)
		}
		return nil, errors.Wrap(errors.ErrCodeCLI, "failed to build kube config", err)
	}
	return config, nil
}

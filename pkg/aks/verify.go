package aks

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/azctl/azctl/pkg/errors"
)

// NodeStatus is the readiness of one node.
type NodeStatus struct {
	Name    string `json:"name"`
	Ready   bool   `json:"ready"`
	Version string `json:"kubeletVersion"`
}

// VerifyResult summarises a connectivity check against a cluster.
type VerifyResult struct {
	ServerVersion string       `json:"serverVersion"`
	Nodes         []NodeStatus `json:"nodes"`
	ReadyNodes    int          `json:"readyNodes"`
	TotalNodes    int          `json:"totalNodes"`
}

// Verify checks that the credentials in clientset reach the API server and reports
// node readiness.
func Verify(ctx context.Context, clientset kubernetes.Interface) (*VerifyResult, error) {
	info, err := clientset.Discovery().ServerVersion()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to reach the Kubernetes API server", err)
	}

	nodes, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to list nodes", err)
	}

	res := &VerifyResult{ServerVersion: info.GitVersion, TotalNodes: len(nodes.Items)}
	for _, n := range nodes.Items {
		st := NodeStatus{Name: n.Name, Version: n.Status.NodeInfo.KubeletVersion, Ready: isNodeReady(n)}
		if st.Ready {
			res.ReadyNodes++
		}
		res.Nodes = append(res.Nodes, st)
	}
	return res, nil
}

func isNodeReady(n corev1.Node) bool {
	for _, c := range n.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

// String renders a one-line summary.
func (r *VerifyResult) String() string {
	return fmt.Sprintf("server %s, %d/%d nodes ready", r.ServerVersion, r.ReadyNodes, r.TotalNodes)
}

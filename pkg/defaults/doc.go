// Package defaults provides centralized configuration constants for azctl.
//
// This package defines timeout values, polling intervals, and other tuning
// defaults used across the codebase.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - ARM timeouts: For single Azure Resource Manager requests
//   - Polling: For long-running operations and backup jobs
//   - Kubernetes timeouts: For client-go calls against a cluster
//   - Registry timeouts: For container registry data plane calls
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/azctl/azctl/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ARMRequestTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
//   - ARM calls: 60s per request, the SDK retries transient failures itself
//   - Long-running operations: polled every 5s, given up after 30m
//   - Backup jobs: polled every 5s with no upper bound other than the context
//   - Kubernetes calls: 30s
package defaults

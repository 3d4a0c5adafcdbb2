package defaults

import "time"

// Azure Resource Manager.
const (
	// ARMEndpoint is the public cloud resource manager endpoint.
	ARMEndpoint = "https://management.azure.com"

	// ARMAudience is the token scope requested for resource manager calls.
	ARMAudience = "https://management.azure.com/.default"

	// ARMRequestTimeout bounds a single resource manager request.
	ARMRequestTimeout = 60 * time.Second

	// ARMRateLimit is the client-side request rate (requests per second).
	ARMRateLimit = 10

	// ARMRateBurst is the client-side burst size.
	ARMRateBurst = 20
)

// Long-running operation polling.
const (
	// PollInterval is the delay between two status checks.
	PollInterval = 5 * time.Second

	// PollTimeout bounds how long a long-running operation is waited for.
	PollTimeout = 30 * time.Minute
)

// Kubernetes.
const (
	// K8sRequestTimeout bounds a single client-go call made by aks verify.
	K8sRequestTimeout = 30 * time.Second
)

// Container registry.
const (
	// RegistryTimeout bounds a single registry data plane call.
	RegistryTimeout = 60 * time.Second
)

// Batch execution.
const (
	// BatchConcurrency is the number of --ids entries processed at once.
	BatchConcurrency = 4
)

package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/errors"
)

func TestObserveCommand(t *testing.T) {
	before := testutil.ToFloat64(commandTotal.WithLabelValues("aks show", statusSuccess))
	ObserveCommand("aks show", time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(commandTotal.WithLabelValues("aks show", statusSuccess)))

	notFound := errors.New(errors.ErrCodeResourceNotFound, "missing")
	ObserveCommand("aks show", time.Now(), notFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(commandTotal.WithLabelValues("aks show", "RESOURCE_NOT_FOUND")))
}

func TestObserveARMRequest(t *testing.T) {
	before := testutil.ToFloat64(armRequestTotal.WithLabelValues("GET", "200"))
	ObserveARMRequest("GET", 200)
	ObserveARMRequest("GET", 200)
	assert.Equal(t, before+2, testutil.ToFloat64(armRequestTotal.WithLabelValues("GET", "200")))
}

func TestFlush_Disabled(t *testing.T) {
	t.Setenv(EnvTelemetryFile, "")
	assert.NoError(t, Flush())
}

func TestFlushTo(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "azctl_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	path := filepath.Join(t.TempDir(), "azctl.prom")
	require.NoError(t, FlushTo(path, reg))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "azctl_test_total 1")
}

func TestFlush_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azctl.prom")
	t.Setenv(EnvTelemetryFile, path)

	ObserveCommand("version", time.Now(), nil)
	require.NoError(t, Flush())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "azctl_command_total")
}

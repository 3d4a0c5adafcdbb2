// Package telemetry records local command and request metrics.
//
// Metrics are kept in the default prometheus registry. When AZCTL_TELEMETRY_FILE is
// set they are written to that file in the text exposition format when the command
// exits, which lets node_exporter's textfile collector or a CI job pick them up.
package telemetry

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/azctl/azctl/pkg/errors"
)

// EnvTelemetryFile names the file metrics are flushed to.
const EnvTelemetryFile = "AZCTL_TELEMETRY_FILE"

const statusSuccess = "success"

// ObserveCommand records one finished command.
func ObserveCommand(command string, started time.Time, err error) {
	status := statusSuccess
	if err != nil {
		status = string(errors.CodeOf(err))
	}
	commandTotal.WithLabelValues(command, status).Inc()
	commandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

// ObserveARMRequest records one resource manager response. A zero code means the
// request never got a response.
func ObserveARMRequest(method string, code int) {
	armRequestTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// Flush writes the default registry to the file named by AZCTL_TELEMETRY_FILE.
// It is a no-op when the variable is unset.
func Flush() error {
	path := os.Getenv(EnvTelemetryFile)
	if path == "" {
		return nil
	}
	return FlushTo(path, prometheus.DefaultGatherer)
}

// FlushTo writes the metrics gathered by g to path.
func FlushTo(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrap(errors.ErrCodeFileOperation, "failed to write telemetry file", err)
	}
	slog.Debug("telemetry written", "path", path)
	return nil
}

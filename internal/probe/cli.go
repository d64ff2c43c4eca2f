package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/icp/pkg/logger"
)

// SetupLogging initializes the global logger, teeing to logFile when set.
// The returned function closes the file.
func SetupLogging(logFile string, verbose bool) (func(), error) {
	var (
		out     io.Writer = os.Stdout
		closeFn           = func() {}
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { _ = f.Close() }
	}

	if err := logger.Init(logger.WithWriter(out)); err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the probe.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `ICP Probe
=========

Submits synthetic leads to a running ICP service and checks every assignment
against a scorer built locally from the service's own GET /segments profile.

Usage:
  go run ./cmd/icp-probe [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -leads int         Number of leads to generate (default 1000)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 10s)
  -seed uint         Generator seed (default 1)
  -spread float      Standard deviations to sample around the mean (default 1.5)
  -output string     Write per-lead outcomes as JSON
  -log string        Also write logs to this file
  -verbose           Log every mismatch
  -help              Show this help message

Exit status is non-zero when the service is unreachable or any assignment
disagrees with the local scorer.
`)
}

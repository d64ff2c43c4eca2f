package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/icp/internal/probe"
)

// Default configuration constants.
const (
	defaultNumLeads = 1000
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 10 * time.Second
	defaultSpread   = 1.5
	defaultDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numLeads   = flag.Int("leads", defaultNumLeads, "Number of leads to generate")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 1, "Generator seed")
		spread     = flag.Float64("spread", defaultSpread, "Standard deviations to sample around the mean")
		outputFile = flag.String("output", "", "Write per-lead outcomes as JSON")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every mismatch")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := probe.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultDeadline)

	_, err = probe.Run(ctx, &probe.Config{
		BaseURL:    *baseURL,
		NumLeads:   *numLeads,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		Spread:     *spread,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	})
	cancel()
	stop()
	closeLog()
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

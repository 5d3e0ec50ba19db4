package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/spf13/cobra"
)

// probeOptions configure the container health probe
type probeOptions struct {
	URL           string
	Timeout       time.Duration
	Retries       int
	RetryDelay    time.Duration
	Format        string
	AllowDegraded bool
}

var errUnhealthy = errors.New("service is not healthy")

func healthcheckCmd() *cobra.Command {
	opts := probeOptions{}

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server's health endpoint",
		Long: `Probe a running server's health endpoint and exit non-zero unless it
reports healthy. Suitable as a Docker HEALTHCHECK.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.URL == "" {
				opts.URL = os.Getenv("HEALTH_CHECK_URL")
			}
			if opts.URL == "" {
				opts.URL = "http://localhost:8080/health"
			}
			return runProbe(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "Health endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8080/health)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	cmd.Flags().IntVar(&opts.Retries, "retry", 0, "Number of retries on request failure")
	cmd.Flags().DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.AllowDegraded, "allow-degraded", false, "Treat a degraded report as passing")

	return cmd
}

// runProbe fetches the report, prints it and maps its status to an error
func runProbe(ctx context.Context, out io.Writer, opts probeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: opts.Timeout}

	var (
		report  *healthcheck.Response
		lastErr error
	)
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(opts.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		report, lastErr = fetchReport(ctx, client, opts.URL)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("health check failed after %d attempts: %w", opts.Retries+1, lastErr)
	}

	if err := printReport(out, report, opts.Format); err != nil {
		return err
	}

	switch report.Status {
	case healthcheck.StatusHealthy:
		return nil
	case healthcheck.StatusDegraded:
		if opts.AllowDegraded {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errUnhealthy, report.Status)
}

func fetchReport(ctx context.Context, client *http.Client, url string) (*healthcheck.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 503 still carries the report
	var report healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode health report (HTTP %d): %w", resp.StatusCode, err)
	}
	if report.Status == "" {
		return nil, fmt.Errorf("health report without status (HTTP %d)", resp.StatusCode)
	}
	return &report, nil
}

func printReport(out io.Writer, report *healthcheck.Response, format string) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Status: %s (version %s)\n", report.Status, report.Version)
	for _, check := range report.Checks {
		line := fmt.Sprintf("  %-10s %s", check.Name, check.Status)
		if check.Message != "" {
			line += ": " + check.Message
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

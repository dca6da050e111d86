package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckURL     string
	healthcheckTimeout time.Duration
)

// healthcheckCmd probes the running server. Used as the container
// HEALTHCHECK command, so it exits non-zero on any failure.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the health of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: healthcheckTimeout}

		resp, err := client.Get(healthcheckURL)
		if err != nil {
			return fmt.Errorf("health request failed: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unhealthy (status %d): %s", resp.StatusCode, string(body))
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "http://localhost:8080/health", "health endpoint to probe")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
}

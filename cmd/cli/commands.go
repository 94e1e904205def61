package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(slotsCmd)
	rootCmd.AddCommand(generateCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics")
	},
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List the slots of the current month",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/slots")
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the slots of the current month with the stored weekdays",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/jobs/generate-month")
	},
}

func requestURL(endpoint string) string {
	u := host + endpoint
	if dryRun {
		u += "?" + url.Values{"dry_run": {"true"}}.Encode()
	}
	return u
}

func performRequest(method, endpoint string) error {
	target := requestURL(endpoint)
	fmt.Printf("Making %s request to %s\n", method, target)

	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiURL     string
	timeout    time.Duration
	jsonOutput bool
)

func defaultAPIURL() string {
	if s := os.Getenv("COMPLAINTS_API_URL"); s != "" {
		return s
	}
	return "http://localhost:3000"
}

var rootCmd = &cobra.Command{
	Use:           "complaintsctl <command>",
	Short:         "Operator CLI for the complaint intake pipeline",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultAPIURL(), "producer API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "intake", Title: "Intake:"},
		&cobra.Group{ID: "ops", Title: "Operators:"},
	)

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

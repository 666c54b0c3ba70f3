package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-service/internal/client"
	"github.com/spec-kit/complaint-service/internal/stress"
)

var (
	stressCount       int
	stressMode        string
	stressConcurrency int
)

var stressCmd = &cobra.Command{
	Use:     "stress",
	Short:   "Send a batch of synthetic complaints and report throughput",
	GroupID: "intake",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count := stress.ClampCount(stressCount)
		payloads := stress.BuildPayloads(count)

		res, err := stress.Run(cmd.Context(), client.NewHTTPClient(apiURL, timeout), payloads, stress.Mode(stressMode), stressConcurrency)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"success":    res.Success,
				"failed":     res.Failed,
				"total":      res.Total,
				"durationMs": res.Duration.Milliseconds(),
				"avgMs":      res.Average.Milliseconds(),
				"errors":     res.Errors,
			})
		}

		fmt.Fprintf(out, "Mode:     %s\n", stressMode)
		fmt.Fprintf(out, "Total:    %d\n", res.Total)
		fmt.Fprintf(out, "Success:  %d\n", res.Success)
		fmt.Fprintf(out, "Failed:   %d\n", res.Failed)
		fmt.Fprintf(out, "Duration: %s\n", res.Duration.Round(1e6))
		fmt.Fprintf(out, "Average:  %s\n", res.Average.Round(1e3))
		if len(res.Errors) > 0 {
			fmt.Fprintln(out, "Errors:")
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
		}
		return nil
	},
}

func init() {
	stressCmd.Flags().IntVar(&stressCount, "count", 20, fmt.Sprintf("number of requests (%d-%d)", stress.MinRequests, stress.MaxRequests))
	stressCmd.Flags().StringVar(&stressMode, "mode", string(stress.ModeSequential), "sequential or parallel")
	stressCmd.Flags().IntVar(&stressConcurrency, "concurrency", 0, "max in-flight requests in parallel mode (0 = unbounded)")
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/client"
)

var (
	submitLine        string
	submitEmail       string
	submitType        string
	submitDescription string
)

var submitCmd = &cobra.Command{
	Use:     "submit",
	Short:   "Submit a single complaint",
	GroupID: "intake",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := dto.CreateComplaintRequest{
			LineNumber:   submitLine,
			Email:        submitEmail,
			IncidentType: submitType,
		}
		if cmd.Flags().Changed("description") {
			req.Description = &submitDescription
		}

		ticket, err := client.NewHTTPClient(apiURL, timeout).SubmitComplaint(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ticket)
		}
		fmt.Fprintf(out, "Ticket %s accepted (%s, status %s, priority %s)\n",
			ticket.TicketID, ticket.IncidentType, ticket.Status, ticket.Priority)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitLine, "line", "", "subscriber line number")
	submitCmd.Flags().StringVar(&submitEmail, "email", "", "contact email")
	submitCmd.Flags().StringVar(&submitType, "type", "", "incident type (NO_SERVICE, INTERMITTENT_SERVICE, SLOW_CONNECTION, ROUTER_ISSUE, BILLING_QUESTION, OTHER)")
	submitCmd.Flags().StringVar(&submitDescription, "description", "", "free-text description, required for OTHER")
	_ = submitCmd.MarkFlagRequired("line")
	_ = submitCmd.MarkFlagRequired("email")
	_ = submitCmd.MarkFlagRequired("type")
}

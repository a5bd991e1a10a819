package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	contextutils "wastereport/internal/utils"

	"github.com/spf13/cobra"
)

// ComplaintCommands returns the complaint triage commands
func ComplaintCommands(complaintService services.ComplaintServiceInterface, assignmentService services.AssignmentServiceInterface, logger *observability.Logger) *cobra.Command {
	complaintCmd := &cobra.Command{
		Use:   "complaints",
		Short: "Complaint triage commands",
		Long: `Complaint triage commands.

Available commands:
  list   - List complaints, optionally for one citizen
  show   - Print one complaint as JSON
  assign - Assign a complaint to an authority member`,
	}

	complaintCmd.AddCommand(listComplaintsCmd(complaintService, logger))
	complaintCmd.AddCommand(showComplaintCmd(complaintService))
	complaintCmd.AddCommand(assignComplaintCmd(assignmentService, logger))

	return complaintCmd
}

func listComplaintsCmd(complaintService services.ComplaintServiceInterface, logger *observability.Logger) *cobra.Command {
	var citizenID int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			complaints, err := complaintService.ListComplaints(ctx, models.ComplaintFilter{CitizenID: citizenID})
			if err != nil {
				logger.Error(ctx, "Failed to list complaints", err)
				return contextutils.WrapError(err, "failed to list complaints")
			}

			out := cmd.OutOrStdout()
			if len(complaints) == 0 {
				fmt.Fprintln(out, "No complaints found")
				return nil
			}

			fmt.Fprintf(out, "%-5s %-8s %-14s %-10s %-8s %-20s %-16s\n", "ID", "Citizen", "Type", "Status", "Urgency", "Assignee", "Created")
			fmt.Fprintln(out, strings.Repeat("-", 87))
			for _, c := range complaints {
				assignee := "-"
				if c.AssignedName.Valid {
					assignee = c.AssignedName.String
				}
				fmt.Fprintf(out, "%-5d %-8d %-14s %-10s %-8s %-20s %-16s\n",
					c.ID,
					c.CitizenID,
					c.Type,
					c.Status,
					c.Urgency,
					assignee,
					c.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&citizenID, "citizen", 0, "Only show complaints filed by this citizen id")
	return cmd
}

func showComplaintCmd(complaintService services.ComplaintServiceInterface) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one complaint as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			complaint, err := complaintService.GetComplaint(cmd.Context(), id)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(complaint, "", "  ")
			if err != nil {
				return contextutils.WrapError(err, "failed to encode complaint")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}

func assignComplaintCmd(assignmentService services.AssignmentServiceInterface, logger *observability.Logger) *cobra.Command {
	var assigneeID int
	var assigneeName string

	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign a complaint to an authority member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			notification, err := assignmentService.AssignComplaint(ctx, id, assigneeID, assigneeName)
			if err != nil {
				logger.Error(ctx, "Failed to assign complaint", err, map[string]interface{}{"complaint_id": id, "assigned_to": assigneeID})
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Complaint #%d assigned to %s; notification %d created\n", id, assigneeName, notification.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&assigneeID, "to", 0, "Assignee user id (required)")
	cmd.Flags().StringVar(&assigneeName, "name", "", "Assignee display name (required)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid complaint id %q", raw)
	}
	return id, nil
}

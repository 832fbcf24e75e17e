package cli

import (
	"fmt"

	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain"
	"github.com/felixgeelhaar/spectree/pkg/storage"
	"github.com/spf13/cobra"
)

var auditRunID string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and verify the plan generation audit trail",
}

func workspaceAudit() (*application.AuditService, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return application.NewAuditService(storage.NewFilesystemRepository(cfg.Workspace.Root)), nil
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := workspaceAudit()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Verifying audit trail integrity...")
		violations, err := service.VerifyIntegrity()
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if len(violations) == 0 {
			fmt.Fprintln(out, okStyle.Render("Audit trail is intact and verified."))
			return nil
		}

		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Found %d integrity violations:", len(violations))))
		for _, v := range violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		return &CLIError{Message: "audit trail failed verification", ExitCode: 1}
	},
}

var auditTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "List recorded generation events",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := workspaceAudit()
		if err != nil {
			return err
		}

		var events []domain.Event
		if auditRunID != "" {
			events, err = service.RunTimeline(auditRunID)
		} else {
			events, err = service.GetTimeline()
		}
		if err != nil {
			return fmt.Errorf("read audit trail: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events recorded.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "%s  %-20s %-7s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Actor, dimStyle.Render("run "+e.RunID))
		}
		return nil
	},
}

func init() {
	auditTimelineCmd.Flags().StringVar(&auditRunID, "run", "", "Only show events of this run")
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTimelineCmd)
	RootCmd.AddCommand(auditCmd)
}

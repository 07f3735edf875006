package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"konbot/internal/bootstrap"
	"konbot/internal/bootstrap/logging"
	"konbot/internal/errs"
	"konbot/internal/usecase/catalog"
	"konbot/internal/usecase/reviewconsole"
)

var reviewConsoleCmd = &cobra.Command{
	Use:   "review-console",
	Short: "Start the interactive review queue console",
	RunE: withApp(func(cmd *cobra.Command, _ []string, _ *bootstrap.App, svc *catalog.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		reviewer, _ := cmd.Flags().GetString("reviewer")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 10 * time.Second
		}

		model := reviewconsole.NewReviewModel(ctx, svc, reviewconsole.ReviewOptions{
			Reviewer:        reviewer,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run review console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reviewConsoleCmd)
	reviewConsoleCmd.Flags().String("reviewer", "console", "Reviewer name recorded on overrides")
	reviewConsoleCmd.Flags().Duration("refresh-interval", 10*time.Second, "Auto refresh interval")
}

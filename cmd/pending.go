/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"konbot/internal/bootstrap"
	"konbot/internal/errs"
	"konbot/internal/usecase/catalog"
)

var (
	pendingListLimit int
	pendingReviewer  string
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Work the pending review queue",
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending reviews, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, catalogSvc *catalog.Service) error {
		items, err := catalogSvc.PendingReviews(cmd.Context(), pendingListLimit)
		if err != nil {
			return errs.Wrap(err, "list pending reviews")
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "review queue is empty")
			return nil
		}
		for _, item := range items {
			line := fmt.Sprintf("bid=%d reason=%s enqueued=%s",
				item.Review.BID, item.Review.Reason, item.Review.EnqueuedAt.Format("2006-01-02 15:04"))
			if item.Info != nil {
				line += fmt.Sprintf(" title=%q", item.Info.Artist+" - "+item.Info.Title)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	}),
}

var pendingSetCmd = &cobra.Command{
	Use:   "set <bid> <type>",
	Short: "Override a beatmap's classification and clear it from the queue",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App, catalogSvc *catalog.Service) error {
		bid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errs.Wrap(err, "parse beatmap id")
		}
		newType, err := catalogSvc.Aliases().ParseType(args[1])
		if err != nil {
			return err
		}

		if err := catalogSvc.Override(cmd.Context(), catalog.OverrideInput{
			BID:      bid,
			NewType:  newType,
			Reviewer: pendingReviewer,
		}); err != nil {
			return errs.Wrap(err, "override classification")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "beatmap %d classified as %s and removed from the queue\n", bid, newType)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.AddCommand(pendingListCmd)
	pendingCmd.AddCommand(pendingSetCmd)

	pendingListCmd.Flags().IntVar(&pendingListLimit, "limit", 20, "Maximum entries to show")
	pendingSetCmd.Flags().StringVar(&pendingReviewer, "reviewer", "cli", "Reviewer recorded on the override")
}

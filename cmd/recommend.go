/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"konbot/internal/bootstrap"
	"konbot/internal/domain/beatmap"
	"konbot/internal/errs"
	"konbot/internal/usecase/catalog"
)

var (
	recommendType        string
	recommendQQID        int64
	recommendDescription string
)

// recommendCmd submits one recommendation from the terminal, useful for
// exercising the reconciliation pipeline without a chat frontend.
var recommendCmd = &cobra.Command{
	Use:   "recommend <bid>",
	Short: "Record a beatmap recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App, catalogSvc *catalog.Service) error {
		bid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errs.Wrap(err, "parse beatmap id")
		}

		var userType *beatmap.Type
		if recommendType != "" {
			typ, err := catalogSvc.Aliases().ParseType(recommendType)
			if err != nil {
				return err
			}
			userType = &typ
		}

		result, err := catalogSvc.Recommend(cmd.Context(), catalog.RecommendInput{
			QQID:        recommendQQID,
			BID:         bid,
			UserType:    userType,
			Description: recommendDescription,
		})
		if err != nil {
			return errs.Wrap(err, "record recommendation")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "recommendation %d recorded\n", result.RecommendationID)
		fmt.Fprintf(out, "beatmap: %s - %s [%s]\n", result.Metadata.Artist, result.Metadata.Title, result.Metadata.DiffName)
		fmt.Fprintf(out, "catalog type: %s\n", result.CatalogType)
		if result.ReviewReason != "" {
			fmt.Fprintf(out, "queued for review: %s\n", result.ReviewReason)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendType, "type", "", "Asserted beatmap type (stream/jump/alt/tech/others or an alias)")
	recommendCmd.Flags().Int64Var(&recommendQQID, "qqid", 0, "Submitter chat id to record")
	recommendCmd.Flags().StringVar(&recommendDescription, "description", "", "Recommendation description")
}

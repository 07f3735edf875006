/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"konbot/internal/bootstrap"
	"konbot/internal/bootstrap/logging"
	"konbot/internal/chatbot"
	"konbot/internal/chatbot/onebot"
	"konbot/internal/errs"
	"konbot/internal/usecase/catalog"
)

// botCmd represents the bot command
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the chat bot against a OneBot v11 endpoint",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, catalogSvc *catalog.Service) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		bot := chatbot.NewBot(catalogSvc, app.Config.Bot.Superusers)
		client := onebot.NewClient(app.Config.Bot.WSURL, app.Config.Bot.AccessToken, bot.HandleEvent)

		logging.Info(ctx, "starting bot",
			slog.String("ws_url", app.Config.Bot.WSURL),
			slog.Int("superusers", len(app.Config.Bot.Superusers)))

		if err := client.Run(ctx); err != nil && !isShutdown(err) {
			logging.Error(ctx, "bot stopped", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "run bot")
		}
		logging.Info(ctx, "bot shut down")
		return nil
	}),
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func init() {
	rootCmd.AddCommand(botCmd)
}

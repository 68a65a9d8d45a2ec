package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/keshon/chatcmd/internal/server"
	"github.com/keshon/chatcmd/internal/version"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatcher with an interactive console",
	Long: `Run the command dispatcher and read chat lines from standard input.

Plain lines are typed by the console operator, who holds every permission.
Lines starting with ':' manage simulated players:

  :join <name>        connect a player
  :leave <name>       disconnect a player
  :as <name> <text>   type as that player
  :players            list online players
  :quit               stop the server`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Info().Str("version", version.Version).Msgf("[INFO] Starting %s...", version.AppName)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("[ERR] Failed to close storage")
		}
	}()

	if err := a.srv.Start(ctx); err != nil {
		return err
	}

	render := server.NewRenderer(lipgloss.NewRenderer(os.Stdout), noColor)
	console := server.NewConsole(a.srv, cfg.ConsolePlayer, os.Stdin, os.Stdout, render)
	if err := a.srv.Go("console", func(ctx context.Context) error {
		defer stop()
		return console.Run(ctx)
	}); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info().Msg("[INFO] Shutting down")
	return nil
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/membot/pkg/log"
	"github.com/sandevgo/membot/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MemBot service",
	Long:  `Bootstraps the vector index from the remote feed, then serves the question API while a background loop keeps the index fresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting membot")

		services, err := NewServices(ctx)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)

		logger.Info().Msg("membot has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

package main

import (
	"context"
	"os"

	"github.com/sandevgo/membot/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "membot",
	Short: "MemBot — grounded Q&A over member messages",
	Long:  `MemBot ingests a remote member message feed into a vector index and answers natural-language questions about a member, grounded in their own messages.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, debug)
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *slog.Logger
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "caw",
		Short: "caw - a small social posting backend",
		Long: `caw runs the key-value store and faz event servers, and talks to a
running faz server as a client.

Servers:
  caw serve kv     key-value store (memory, redis or postgres backend)
  caw serve faz    event dispatch and hashtag streaming

Client commands hook events, register users, post, follow, read threads,
show profiles and stream hashtags. A .env file in the working directory is
loaded before flags are read.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				color.Yellow("ignoring .env: %v", err)
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createClientCmds()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

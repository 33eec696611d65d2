package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/caw/faz"
	"github.com/tailored-agentic-units/caw/kv"
	"github.com/tailored-agentic-units/caw/observability"
	"github.com/tailored-agentic-units/caw/transport"
)

func createServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a caw server",
	}
	cmd.AddCommand(createServeKVCmd())
	cmd.AddCommand(createServeFazCmd())
	return cmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func createServeKVCmd() *cobra.Command {
	var flags kv.Config

	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Run the key-value store server",
		Long: `Run the KeyValueService. With --store the full contents are written to
the snapshot file after every put and remove, and restored from it at start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := kv.DefaultConfig()
			cfg.ApplyEnv()
			cfg.Merge(&flags)
			if cfg.Backend == kv.BackendRemote {
				return fmt.Errorf("serve kv cannot use the %q backend", kv.BackendRemote)
			}

			ctx, stop := signalContext()
			defer stop()

			store, closeStore, err := kv.NewStore(ctx, &cfg, observability.NewSlogObserver(logger), kv.WithPersistLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			defer closeStore()

			engine := transport.NewEngine(logger)
			service := kv.NewService(store, logger)
			transport.Mount(engine, service.Handlers(connect.WithInterceptors(transport.NewLoggingInterceptor(logger))))

			color.Green("kv server (%s) listening on %s", cfg.Backend, cfg.Address)
			return transport.Serve(ctx, cfg.Address, engine, logger)
		},
	}

	cmd.Flags().StringVar(&flags.Address, "addr", "", "Listen address (default "+kv.DefaultAddress+")")
	cmd.Flags().StringVar(&flags.SnapshotPath, "store", "", "Snapshot file; empty keeps state in memory only")
	cmd.Flags().StringVar(&flags.Backend, "backend", "", "Store backend: memory, redis or postgres")
	cmd.Flags().StringVar(&flags.RedisURL, "redis-url", "", "Redis URL for the redis backend")
	cmd.Flags().StringVar(&flags.PostgresDSN, "postgres-dsn", "", "Postgres DSN for the postgres backend")

	return cmd
}

func createServeFazCmd() *cobra.Command {
	var (
		configFile string
		flags      faz.Config
	)

	cmd := &cobra.Command{
		Use:   "faz",
		Short: "Run the faz event server",
		Long: `Run the FazService and its HTTP gateway. Events are dispatched against
the key-value server at --kv-addr unless the config selects another backend.
Browsers can stream hashtags from /ws/stream?hashtag=<tag>&username=<user>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := faz.DefaultConfig()
			if configFile != "" {
				loaded, err := faz.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			cfg.KV.ApplyEnv()
			if addr := os.Getenv("CAW_FAZ_ADDRESS"); addr != "" {
				cfg.Address = addr
			}
			cfg.Merge(&flags)

			ctx, stop := signalContext()
			defer stop()

			observer := observability.NewSlogObserver(logger)
			store, closeStore, err := kv.NewStore(ctx, &cfg.KV, observer, kv.WithPersistLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			defer closeStore()

			dispatcher := faz.NewDispatcher(
				store,
				faz.WithLogger(logger),
				faz.WithObserver(observer),
				faz.WithStreamConfig(cfg.Stream),
			)
			if cfg.HookAll {
				if err := dispatcher.HookAll(ctx); err != nil {
					return fmt.Errorf("failed to hook events: %w", err)
				}
			}

			gateway := faz.NewGateway(dispatcher, logger, connect.WithInterceptors(transport.NewLoggingInterceptor(logger)))

			color.Green("faz server listening on %s (store: %s)", cfg.Address, cfg.KV.Backend)
			return transport.Serve(ctx, cfg.Address, gateway.Handler(), logger)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to faz config file (JSON or YAML)")
	cmd.Flags().StringVar(&flags.Address, "addr", "", "Listen address (default "+faz.DefaultAddress+")")
	cmd.Flags().StringVar(&flags.KV.Address, "kv-addr", "", "Key-value server address (default "+kv.DefaultAddress+")")
	cmd.Flags().StringVar(&flags.KV.Backend, "kv-backend", "", "Store backend: remote, memory, redis or postgres")
	cmd.Flags().BoolVar(&flags.HookAll, "hookall", false, "Hook every event to its default handler at start")

	return cmd
}

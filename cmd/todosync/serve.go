package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhill/todosync/internal/config"
	"github.com/fernhill/todosync/internal/router"
	"github.com/fernhill/todosync/internal/syncer"
	"github.com/fernhill/todosync/internal/todoist"
	"github.com/fernhill/todosync/internal/webhook"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the completion webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}

		var client syncer.Client
		if cfg.Settings.DryRun {
			client = syncer.NewDryRun(slog.Default())
		} else {
			if err := cfg.RequireAPIToken(); err != nil {
				return err
			}
			client = todoist.NewClient(cfg.APIToken)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openLedger(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		rt := router.New(client, store, cfg.Settings.Rules, slog.Default())
		srv := webhook.NewServer(webhook.ServerConfig{Router: rt, Logger: slog.Default()})

		errCh := make(chan error, 1)
		go func() {
			slog.Info("webhook server listening", "addr", cfg.ListenAddr, "rules", len(cfg.Settings.Rules))
			errCh <- srv.Start(cfg.ListenAddr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "bind address (overrides config listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fernhill/todosync/internal/config"
	"github.com/fernhill/todosync/internal/ledger"
	"github.com/fernhill/todosync/internal/materialize"
	"github.com/fernhill/todosync/internal/syncer"
	"github.com/fernhill/todosync/internal/template"
	"github.com/fernhill/todosync/internal/todoist"
	"github.com/fernhill/todosync/internal/tokens"
)

var (
	tokenFlags []string
	dryRunFlag bool
)

var materializeCmd = &cobra.Command{
	Use:   "materialize <template.yaml>",
	Short: "Expand a template into tasks in the external service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dryRunFlag {
			cfg.Settings.DryRun = true
		}

		tmpl, err := template.Load(args[0])
		if err != nil {
			return err
		}

		supplied, err := parseTokenFlags(tokenFlags)
		if err != nil {
			return err
		}

		plan, err := materialize.Build(tmpl, supplied, cfg.Settings)
		if err != nil {
			var verr *tokens.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("%w (supply with --token name=value)", verr)
			}
			return err
		}

		var client syncer.Client
		var dry *syncer.DryRunClient
		if cfg.Settings.DryRun {
			dry = syncer.NewDryRun(slog.Default())
			client = dry
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

		exec := materialize.NewExecutor(client, store, slog.Default())
		res, err := exec.Run(ctx, plan)
		if res != nil {
			printResult(res, cfg.Settings.DryRun)
		}
		return err
	},
}

func init() {
	materializeCmd.Flags().StringArrayVar(&tokenFlags, "token", nil, "token value as name=value (repeatable)")
	materializeCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "plan and log operations without calling the external API")
	rootCmd.AddCommand(materializeCmd)
}

func parseTokenFlags(flags []string) (map[string]string, error) {
	values := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --token %q: expected name=value", f)
		}
		values[name] = value
	}
	return values, nil
}

func openLedger(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	store, err := ledger.NewSQLite(ctx, cfg.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", cfg.LedgerPath, err)
	}
	return store, nil
}

func printResult(res *materialize.Result, dryRun bool) {
	verb := "Created"
	if dryRun {
		verb = "Would create"
	}
	fmt.Printf("Run %d: %s %d task(s)\n", res.RunID, strings.ToLower(verb), len(res.Created))
	sort.Slice(res.Created, func(i, j int) bool { return res.Created[i].Key < res.Created[j].Key })
	for _, c := range res.Created {
		fmt.Printf("  %-8s %-40s %s\n", c.Key, c.Title, c.ExternalID)
	}
	for _, a := range res.Abandoned {
		if a.Err != nil {
			fmt.Printf("  %-8s %-40s ABANDONED: %v\n", a.Key, a.Title, a.Err)
		} else {
			fmt.Printf("  %-8s %-40s ABANDONED (parent failed)\n", a.Key, a.Title)
		}
	}
}

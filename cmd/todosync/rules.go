package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernhill/todosync/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the section rule table",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint the section rules for shadowed entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		rules := cfg.Settings.Rules
		if len(rules) == 0 {
			fmt.Println("No section rules configured.")
			return nil
		}

		for i, r := range rules {
			fmt.Printf("  %2d. (%s, %q) -> %s\n", i+1, r.SourceSectionID, r.Label, r.DestSectionID)
		}

		warnings := config.LintRules(rules)
		for _, w := range warnings {
			fmt.Printf("WARNING: %s\n", w)
		}
		if len(warnings) > 0 {
			return fmt.Errorf("%d shadowed rule(s)", len(warnings))
		}
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}

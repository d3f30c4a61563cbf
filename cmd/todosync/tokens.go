package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernhill/todosync/internal/template"
	"github.com/fernhill/todosync/internal/tokens"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <template.yaml>",
	Short: "Show the substitution tokens a template requires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		tmpl, err := template.Load(args[0])
		if err != nil {
			return err
		}

		specs := tokens.Specs(tmpl)
		if len(specs) == 0 {
			fmt.Printf("%s: no tokens required\n", tmpl.Title)
			return nil
		}

		fmt.Printf("%s (kind %s):\n", tmpl.Title, tmpl.Kind)
		for _, spec := range specs {
			req := "optional"
			if spec.Required {
				req = "required"
			}
			fmt.Printf("  %-20s %-20s %s\n", spec.Name, spec.Label, req)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rapidresq/resq/pkg/cli"
	"rapidresq/resq/pkg/ecl"
	"rapidresq/resq/pkg/ecl/parser"
)

var grammarFlags struct {
	format string
}

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Describe the command grammar",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(grammarFlags.format)
		if err != nil {
			return err
		}
		return cli.NewPrinter(cmd.OutOrStdout(), format).Print(grammarView{ecl.NewProcessor().GrammarInfo()})
	},
}

func init() {
	rootCmd.AddCommand(grammarCmd)
	grammarCmd.Flags().StringVarP(&grammarFlags.format, "format", "f", "text", "output format: text, json")
}

type grammarView struct {
	parser.GrammarDescription
}

func (v grammarView) RenderText(w io.Writer, s cli.Styles) error {
	fmt.Fprintf(w, "%s %s\n\n", s.Label.Render(v.Name), v.Version)
	for _, r := range v.Rules {
		fmt.Fprintf(w, "  %-18s ::= %s\n", r.Name, r.Production)
	}
	fmt.Fprintf(w, "\n%s %s\n", s.Label.Render("Commands:"), strings.Join(v.CommandKeywords, ", "))
	fmt.Fprintf(w, "%s %s\n", s.Label.Render("Priorities:"), strings.Join(v.PriorityLevels, ", "))
	if len(v.Examples) > 0 {
		fmt.Fprintf(w, "\n%s\n", s.Label.Render("Examples:"))
		for _, ex := range v.Examples {
			fmt.Fprintf(w, "  %s\n", ex)
		}
	}
	return nil
}

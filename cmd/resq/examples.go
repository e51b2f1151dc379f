package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rapidresq/resq/pkg/cli"
	"rapidresq/resq/pkg/engine"
)

var examplesFlags struct {
	format string
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Parse the built-in self-test commands",
	Long: `Parse the built-in self-test commands and summarise the results. The
commands are parsed only; nothing is queued or dispatched. One of them is
deliberately malformed.`,
	RunE: runExamples,
}

func init() {
	rootCmd.AddCommand(examplesCmd)
	examplesCmd.Flags().StringVarP(&examplesFlags.format, "format", "f", "text", "output format: text, json")
}

func runExamples(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(examplesFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr(), "warn")
	if err != nil {
		return err
	}

	a := newApp(cfg, appOptions{Logger: logger})
	defer a.Close()

	report, err := a.engine.RunExamples(cmd.Context())
	if err != nil {
		return cli.NewCommandError("examples", err)
	}
	return cli.NewPrinter(cmd.OutOrStdout(), format).Print(reportView{report})
}

type reportView struct {
	*engine.ExampleReport
}

func (v reportView) RenderText(w io.Writer, s cli.Styles) error {
	for _, r := range v.Results {
		mark := s.OK.Render("ok  ")
		if !r.Success {
			mark = s.Fail.Render("FAIL")
		}
		fmt.Fprintf(w, "%s %s", mark, r.Input)
		if r.Errors > 0 || r.Warnings > 0 {
			fmt.Fprintf(w, "  %s", s.Hint.Render(fmt.Sprintf("(%d errors, %d warnings)", r.Errors, r.Warnings)))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%s %d total, %d successful, %d failed\n",
		s.Label.Render("Summary:"), v.Summary.TotalTests, v.Summary.Successful, v.Summary.Failed)
	fmt.Fprintf(w, "%s %.1f%% success, %.3fms average parse time\n",
		s.Label.Render("Statistics:"), v.Statistics.SuccessRate, v.Statistics.AverageParseTimeMs)
	return nil
}

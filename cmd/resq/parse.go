package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rapidresq/resq/pkg/cli"
	"rapidresq/resq/pkg/ecl/diag"
	"rapidresq/resq/pkg/engine"
)

var parseFlags struct {
	format  string
	execute bool
}

var parseCmd = &cobra.Command{
	Use:   "parse [command...]",
	Short: "Parse an emergency command",
	Long: `Parse an emergency command and report its tokens, semantics and
diagnostics. The arguments are joined into one command; without arguments
every non-empty line of standard input is parsed as a separate command.

The exit code is 3 when any command fails to parse.

Examples:
  resq parse ALERT fire at Lahore priority HIGH contact 1122
  resq parse --execute "QUERY hospital near Karachi"
  resq parse --format json < commands.txt`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseFlags.format, "format", "f", "text", "output format: text, json")
	parseCmd.Flags().BoolVarP(&parseFlags.execute, "execute", "x", false, "dispatch executable commands")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(parseFlags.format)
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

	commands := args
	if len(args) > 0 {
		commands = []string{strings.Join(args, " ")}
	} else if commands, err = readCommands(cmd.InOrStdin()); err != nil {
		return err
	}
	if len(commands) == 0 {
		return fmt.Errorf("no command given")
	}

	a := newApp(cfg, appOptions{Logger: logger})
	defer a.Close()

	var opts []engine.ProcessOption
	if !parseFlags.execute {
		opts = append(opts, engine.WithoutExecution())
	}

	views := make([]outcomeView, 0, len(commands))
	rejected := 0
	for _, command := range commands {
		out, err := a.engine.Process(cmd.Context(), command, opts...)
		if err != nil {
			return cli.NewCommandError("parse", err)
		}
		if !out.Parse.Success {
			rejected++
		}
		views = append(views, outcomeView{Command: command, Outcome: out})
	}

	p := cli.NewPrinter(cmd.OutOrStdout(), format)
	if format == cli.FormatJSON && len(views) == 1 {
		err = p.Print(views[0])
	} else if format == cli.FormatJSON {
		err = p.Print(views)
	} else {
		for _, v := range views {
			if err = p.Print(v); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}

	if rejected > 0 {
		return fmt.Errorf("%d of %d commands failed to parse: %w", rejected, len(commands), cli.ErrRejected)
	}
	return nil
}

// readCommands returns the non-empty lines of r.
func readCommands(r io.Reader) ([]string, error) {
	var commands []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			commands = append(commands, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}
	return commands, nil
}

// outcomeView is the printed form of one processed command.
type outcomeView struct {
	Command string `json:"command"`
	*engine.Outcome
}

func (v outcomeView) RenderText(w io.Writer, s cli.Styles) error {
	res := v.Parse
	state := s.OK.Render(string(v.State))
	if v.State == engine.TerminalFailed {
		state = s.Fail.Render(string(v.State))
	}

	fmt.Fprintf(w, "%s %s\n", state, s.Label.Render(v.Command))
	if res.Success {
		fmt.Fprintf(w, "  type:      %s\n", res.CommandType())
	}
	if v.EmergencyID != "" {
		fmt.Fprintf(w, "  emergency: %s\n", v.EmergencyID)
	}
	fmt.Fprintf(w, "  tokens:    %d (%.2fms)\n", res.Metadata.TokenCount, res.Metadata.ParseTimeMs)

	if sem := res.Semantics; sem != nil {
		fmt.Fprintf(w, "  intent:    %s\n", sem.Intent)
		if sem.UrgencyScore > 0 {
			fmt.Fprintf(w, "  urgency:   %d/10, response %s\n", sem.UrgencyScore, sem.EstimatedResponse)
		}
	}

	for _, d := range res.Diagnostics.All() {
		style := s.Fail
		if d.Severity == diag.SeverityWarning {
			style = s.Warn
		}
		for _, line := range strings.Split(strings.TrimRight(d.Error(), "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", style.Render(line))
		}
	}
	if !res.Success {
		for _, hint := range res.Suggestions() {
			fmt.Fprintf(w, "  %s\n", s.Hint.Render("hint: "+hint))
		}
	}

	if v.Response != nil {
		fmt.Fprintf(w, "  %s %s\n", s.OK.Render(string(v.Response.Action)), v.Response.Message)
	}
	if v.ExecutionError != "" {
		fmt.Fprintf(w, "  %s\n", s.Fail.Render("not executed: "+v.ExecutionError))
	}
	if v.QueueError != "" {
		fmt.Fprintf(w, "  %s\n", s.Warn.Render("queue: "+v.QueueError))
	}
	return nil
}

/*
Package cli provides the building blocks of the resq command: output
printing, a progress bar for benchmark trials, signal handling and exit
codes.

Output:

	p := cli.NewPrinter(os.Stdout, cli.FormatJSON)
	if err := p.Print(report); err != nil {
		return err
	}

Values implementing TextRenderer control their text form; styles from
github.com/charmbracelet/lipgloss are dropped when stdout is not a terminal.

Signals:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Exit codes are derived from the returned error with ExitCode: 2 for
configuration errors, 3 for rejected commands, 1 for everything else.
*/
package cli

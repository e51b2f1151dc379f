package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rapidresq/resq/pkg/cli"
	"rapidresq/resq/pkg/coordinator"
)

var benchFlags struct {
	workers  int
	trials   int
	initial  uint64
	capacity int
	format   string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Check the coordinator under concurrent load",
	Long: `Run repeated trials in which many goroutines hit the coordinator at once
and check that:

  - the emergency counter ends at initial + workers
  - one enqueue beyond capacity is rejected, and only one
  - the guard never admits two holders

Examples:
  resq bench
  resq bench --workers 200 --trials 500 --capacity 32`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVarP(&benchFlags.workers, "workers", "w", 50, "concurrent goroutines per trial")
	benchCmd.Flags().IntVarP(&benchFlags.trials, "trials", "n", 100, "number of trials")
	benchCmd.Flags().Uint64Var(&benchFlags.initial, "initial", 1000, "initial counter value")
	benchCmd.Flags().IntVar(&benchFlags.capacity, "capacity", 10, "queue capacity")
	benchCmd.Flags().StringVarP(&benchFlags.format, "format", "f", "text", "output format: text, json")
}

// trialResult records the property violations of one trial.
type trialResult struct {
	CounterFinal uint64 `json:"counterFinal"`
	Overflows    int    `json:"overflows"`
	QueueLength  int    `json:"queueLength"`
	MaxHolders   int32  `json:"maxHolders"`
	Races        uint64 `json:"races"`
}

func (r trialResult) ok(workers int, initial uint64, capacity int) bool {
	return r.CounterFinal == initial+uint64(workers) &&
		r.Overflows == 1 && r.QueueLength == capacity &&
		r.MaxHolders == 1 && r.Races == 0
}

// runTrial runs one trial of all three checks.
func runTrial(ctx context.Context, workers int, initial uint64, capacity int) (trialResult, error) {
	var res trialResult

	counter := coordinator.NewCounter(initial)
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			counter.Next()
			return nil
		})
	}
	_ = g.Wait()
	res.CounterFinal = counter.Value()

	queue := coordinator.NewQueue(capacity)
	var overflows atomic.Int32
	g, _ = errgroup.WithContext(ctx)
	for i := 0; i <= capacity; i++ {
		g.Go(func() error {
			_, err := queue.Enqueue(fmt.Sprintf("ALERT fire at Lahore #%d", i))
			if errors.Is(err, coordinator.ErrQueueFull) {
				overflows.Add(1)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Overflows = int(overflows.Load())
	res.QueueLength = queue.Len()

	guard := coordinator.NewGuard(5 * time.Second)
	var holders, maxHolders atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			release, err := guard.Acquire(gctx)
			if err != nil {
				return err
			}
			defer release()

			n := holders.Add(1)
			for {
				m := maxHolders.Load()
				if n <= m || maxHolders.CompareAndSwap(m, n) {
					break
				}
			}
			holders.Add(-1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.MaxHolders = maxHolders.Load()
	res.Races = guard.Races()
	return res, nil
}

// benchReport summarises a bench run.
type benchReport struct {
	Workers    int           `json:"workers"`
	Trials     int           `json:"trials"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Failures   []trialResult `json:"failures,omitempty"`
	DurationMs float64       `json:"durationMs"`
}

func (r benchReport) RenderText(w io.Writer, s cli.Styles) error {
	verdict := s.OK.Render("PASS")
	if r.Failed > 0 {
		verdict = s.Fail.Render("FAIL")
	}
	fmt.Fprintf(w, "%s %d/%d trials passed (%d workers, %.0fms)\n",
		verdict, r.Passed, r.Trials, r.Workers, r.DurationMs)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %s\n", s.Fail.Render(fmt.Sprintf(
			"counter=%d overflows=%d queue=%d maxHolders=%d races=%d",
			f.CounterFinal, f.Overflows, f.QueueLength, f.MaxHolders, f.Races)))
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(benchFlags.format)
	if err != nil {
		return err
	}
	if benchFlags.workers < 1 || benchFlags.trials < 1 || benchFlags.capacity < 1 {
		return fmt.Errorf("workers, trials and capacity must be positive")
	}

	var progressOut io.Writer
	if format == cli.FormatText {
		progressOut = cmd.ErrOrStderr()
	}
	progress := cli.NewProgress(progressOut, "trials")
	progress.Start(benchFlags.trials)

	report := benchReport{Workers: benchFlags.workers, Trials: benchFlags.trials}
	start := time.Now()
	for i := 0; i < benchFlags.trials; i++ {
		res, err := runTrial(cmd.Context(), benchFlags.workers, benchFlags.initial, benchFlags.capacity)
		if err != nil {
			return cli.NewCommandError("bench", err)
		}
		ok := res.ok(benchFlags.workers, benchFlags.initial, benchFlags.capacity)
		if ok {
			report.Passed++
		} else {
			report.Failed++
			report.Failures = append(report.Failures, res)
		}
		progress.Done(ok)
	}
	progress.Finish()
	report.DurationMs = float64(time.Since(start)) / float64(time.Millisecond)

	if err := cli.NewPrinter(cmd.OutOrStdout(), format).Print(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return cli.NewCommandError("bench", fmt.Errorf("%d of %d trials violated coordinator properties", report.Failed, report.Trials))
	}
	return nil
}

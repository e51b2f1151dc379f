package engine

import (
	"context"

	"rapidresq/resq/pkg/ecl/ast"
	"rapidresq/resq/pkg/ecl/semantic"
	"rapidresq/resq/pkg/ecl/stats"
)

// SelfTestCommands exercise every command shape plus one invalid input.
var SelfTestCommands = []string{
	"ALERT fire at Lahore Central Hospital HIGH priority contact 1122",
	"QUERY ambulance near Karachi University",
	"STATUS request-12345",
	"HELP medical emergencies",
	"ALERT medical emergency at GPS:31.5497,74.3436 contact +92-321-1234567",
	"INVALID COMMAND with bad syntax",
}

// ExampleResult summarises the parse of one self-test command.
type ExampleResult struct {
	Input     string              `json:"input"`
	Success   bool                `json:"success"`
	AST       *ast.AST            `json:"ast,omitempty"`
	Tokens    int                 `json:"tokens"`
	Errors    int                 `json:"errors"`
	Warnings  int                 `json:"warnings"`
	Semantics *semantic.Semantics `json:"semantics,omitempty"`
}

// ExampleSummary counts self-test results.
type ExampleSummary struct {
	TotalTests int `json:"totalTests"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ExampleReport is the output of RunExamples.
type ExampleReport struct {
	Results    []ExampleResult `json:"testResults"`
	Statistics stats.Snapshot  `json:"statistics"`
	Summary    ExampleSummary  `json:"summary"`
}

// RunExamples parses SelfTestCommands. The commands count towards the
// parse statistics but are neither queued nor executed.
func (e *Engine) RunExamples(ctx context.Context) (*ExampleReport, error) {
	return e.RunCommands(ctx, SelfTestCommands)
}

// RunCommands parses each command and reports the results in order.
func (e *Engine) RunCommands(ctx context.Context, commands []string) (*ExampleReport, error) {
	ctx, span := e.tracer.Start(ctx, "engine.examples")
	defer span.End()

	report := &ExampleReport{Results: make([]ExampleResult, 0, len(commands))}
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := e.processor.Parse(cmd)
		report.Results = append(report.Results, ExampleResult{
			Input:     cmd,
			Success:   r.Success,
			AST:       r.AST,
			Tokens:    len(r.Tokens),
			Errors:    r.Diagnostics.TotalErrors(),
			Warnings:  r.Diagnostics.TotalWarnings(),
			Semantics: r.Semantics,
		})
		if r.Success {
			report.Summary.Successful++
		} else {
			report.Summary.Failed++
		}
	}
	report.Summary.TotalTests = len(commands)
	report.Statistics = e.processor.Statistics()

	e.logger.DebugContext(ctx, "self-test finished",
		"total", report.Summary.TotalTests,
		"successful", report.Summary.Successful,
	)
	return report, nil
}

// Package diag collects lexical, syntax and semantic diagnostics produced
// while processing an emergency command, and derives remediation hints.
package diag

import (
	"fmt"
	"strings"

	"rapidresq/resq/pkg/ecl/token"
)

// Stage identifies the pipeline stage that produced a diagnostic.
type Stage string

const (
	StageLexer    Stage = "lexer"    // Unrecognised lexeme, oversize input
	StageParser   Stage = "parser"   // Missing or unexpected token
	StageSemantic Stage = "semantic" // Invalid contact, coordinates out of range
)

// Severity distinguishes blocking errors from degrading warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single problem found in a command. It implements error so
// callers may surface one directly.
type Diagnostic struct {
	Severity   Severity  `json:"severity"`
	Stage      Stage     `json:"stage"`
	Message    string    `json:"message"`
	Pos        token.Pos `json:"position"`
	Expected   []string  `json:"expected,omitempty"`
	Field      string    `json:"field,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// Error formats the diagnostic with its position and suggestion.
func (d *Diagnostic) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s %s] %s\n", d.Stage, d.Severity, d.Message))

	if d.Pos.Column > 0 {
		sb.WriteString(fmt.Sprintf("  --> %s\n", d.Pos))
	}

	if len(d.Expected) > 0 {
		sb.WriteString(fmt.Sprintf("  = expected: %s\n", strings.Join(d.Expected, ", ")))
	}

	if d.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", d.Suggestion))
	}

	return sb.String()
}

// Lexical returns a lexer-stage error.
func Lexical(pos token.Pos, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Stage:    StageLexer,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	}
}

// Syntax returns a parser-stage error carrying the expected-token set.
func Syntax(pos token.Pos, expected []string, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Stage:    StageParser,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Expected: expected,
	}
}

// Semantic returns a semantic-stage error for field.
func Semantic(pos token.Pos, field, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Stage:    StageSemantic,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Field:    field,
	}
}

// Warning returns a semantic-stage warning for field.
func Warning(pos token.Pos, field, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Stage:    StageSemantic,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Field:    field,
	}
}

// Diagnostics partitions the problems of one command by stage. Totals are
// always derived from the partitions.
type Diagnostics struct {
	LexerErrors    []Diagnostic `json:"lexerErrors"`
	ParseErrors    []Diagnostic `json:"parseErrors"`
	SemanticErrors []Diagnostic `json:"semanticErrors"`
	Warnings       []Diagnostic `json:"warnings"`
}

// Add files d into the partition matching its stage and severity.
func (ds *Diagnostics) Add(d Diagnostic) {
	if d.Severity == SeverityWarning {
		ds.Warnings = append(ds.Warnings, d)
		return
	}
	switch d.Stage {
	case StageLexer:
		ds.LexerErrors = append(ds.LexerErrors, d)
	case StageParser:
		ds.ParseErrors = append(ds.ParseErrors, d)
	default:
		ds.SemanticErrors = append(ds.SemanticErrors, d)
	}
}

// AddAll files every diagnostic in list.
func (ds *Diagnostics) AddAll(list []Diagnostic) {
	for _, d := range list {
		ds.Add(d)
	}
}

// TotalErrors returns the number of lexer, parser and semantic errors.
func (ds *Diagnostics) TotalErrors() int {
	return len(ds.LexerErrors) + len(ds.ParseErrors) + len(ds.SemanticErrors)
}

// TotalWarnings returns the number of warnings.
func (ds *Diagnostics) TotalWarnings() int {
	return len(ds.Warnings)
}

// HasBlockingErrors reports whether the command failed to parse.
func (ds *Diagnostics) HasBlockingErrors() bool {
	return len(ds.LexerErrors) > 0 || len(ds.ParseErrors) > 0
}

// All returns every diagnostic in pipeline order.
func (ds *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, ds.TotalErrors()+ds.TotalWarnings())
	all = append(all, ds.LexerErrors...)
	all = append(all, ds.ParseErrors...)
	all = append(all, ds.SemanticErrors...)
	all = append(all, ds.Warnings...)
	return all
}

// Err returns nil when there are no errors, otherwise a combined error.
func (ds *Diagnostics) Err() error {
	if ds.TotalErrors() == 0 {
		return nil
	}
	return &List{Items: append(append(append([]Diagnostic{}, ds.LexerErrors...), ds.ParseErrors...), ds.SemanticErrors...)}
}

// List is an error made of several diagnostics.
type List struct {
	Items []Diagnostic
}

// Error formats every diagnostic in the list.
func (l *List) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):\n", len(l.Items)))
	for i := range l.Items {
		sb.WriteString(l.Items[i].Error())
	}
	return sb.String()
}

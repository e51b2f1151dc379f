// Package ecl processes the RapidResQ emergency command language.
//
// A command such as
//
//	ALERT fire at Mall Road Lahore priority CRITICAL contact 1122
//
// flows through four stages, each in its own subpackage:
//
//   - lexer: raw string to tokens
//   - parser: tokens to a concrete parse tree
//   - semantic: parse tree to a typed AST, plus value validation
//   - diag: diagnostics partitioned by stage, with suggestions
//
// # Basic Usage
//
//	p := ecl.NewProcessor()
//	result := p.Parse("QUERY hospital near GPS:31.5204,74.3587")
//	if !result.Success {
//	    for _, s := range result.Suggestions() {
//	        fmt.Println(s)
//	    }
//	    return
//	}
//	fmt.Println(result.AST.Type()) // QUERY
//
// Parse never panics and never returns an error: every failure is reported
// through Result.Diagnostics. Lexical and syntax errors abort AST
// construction but the tokens and the partial parse tree are kept. Semantic
// errors keep the AST; callers decide whether to execute it.
//
// # Thread Safety
//
// A Processor may be shared between goroutines. The only mutable state is
// the statistics tracker, which serialises its own updates.
package ecl

import (
	"time"
	"unicode/utf8"

	"rapidresq/resq/pkg/ecl/ast"
	"rapidresq/resq/pkg/ecl/diag"
	"rapidresq/resq/pkg/ecl/lexer"
	"rapidresq/resq/pkg/ecl/parser"
	"rapidresq/resq/pkg/ecl/semantic"
	"rapidresq/resq/pkg/ecl/stats"
	"rapidresq/resq/pkg/ecl/token"
)

// DefaultMaxLength is the longest accepted command, in characters.
const DefaultMaxLength = 500

// Stage names a step of the pipeline, reported to observers as it starts.
type Stage string

const (
	StageTokenizing       Stage = "TOKENIZING"
	StageParsing          Stage = "PARSING"
	StageSemanticAnalysis Stage = "SEMANTIC_ANALYSIS"
)

// Metadata describes how a result was produced.
type Metadata struct {
	ParseTime      time.Duration `json:"-"`
	ParseTimeMs    float64       `json:"parseTimeMs"`
	GrammarVersion string        `json:"grammarVersion"`
	TokenCount     int           `json:"tokenCount"`
	InputLength    int           `json:"inputLength"`
}

// Result is the outcome of parsing one command.
type Result struct {
	Success     bool                `json:"success"`
	AST         *ast.AST            `json:"ast,omitempty"`
	Semantics   *semantic.Semantics `json:"semantics,omitempty"`
	ParseTree   *parser.Node        `json:"parseTree,omitempty"`
	Tokens      []token.Token       `json:"tokens"`
	Diagnostics diag.Diagnostics    `json:"diagnostics"`
	Metadata    Metadata            `json:"metadata"`
}

// Suggestions returns remediation hints for the recorded diagnostics.
func (r *Result) Suggestions() []string {
	return r.Diagnostics.Suggestions()
}

// Executable reports whether the command parsed and carries no semantic
// errors.
func (r *Result) Executable() bool {
	return r.Success && len(r.Diagnostics.SemanticErrors) == 0
}

// CommandType returns the parsed command type, or "" when parsing failed.
func (r *Result) CommandType() string {
	if r.AST == nil {
		return ""
	}
	return string(r.AST.Type())
}

// Processor runs the pipeline and keeps aggregate statistics.
type Processor struct {
	maxLength int
	tracker   *stats.Tracker
	now       func() time.Time
}

// NewProcessor creates a processor with default settings.
func NewProcessor() *Processor {
	return &Processor{
		maxLength: DefaultMaxLength,
		tracker:   stats.NewTracker(),
		now:       time.Now,
	}
}

// WithMaxLength sets the input bound in characters. Non-positive values keep
// the default.
func (p *Processor) WithMaxLength(n int) *Processor {
	if n > 0 {
		p.maxLength = n
	}
	return p
}

// WithTracker replaces the statistics tracker.
func (p *Processor) WithTracker(t *stats.Tracker) *Processor {
	if t != nil {
		p.tracker = t
	}
	return p
}

// MaxLength returns the configured input bound.
func (p *Processor) MaxLength() int {
	return p.maxLength
}

// Parse runs the full pipeline over command.
func (p *Processor) Parse(command string) *Result {
	return p.ParseObserved(command, nil)
}

// ParseObserved is Parse with a callback invoked as each stage starts.
func (p *Processor) ParseObserved(command string, observe func(Stage)) *Result {
	if observe == nil {
		observe = func(Stage) {}
	}

	start := p.now()
	result := &Result{
		Metadata: Metadata{
			GrammarVersion: parser.GrammarVersion,
			InputLength:    utf8.RuneCountInString(command),
		},
	}

	defer func() {
		result.Metadata.ParseTime = p.now().Sub(start)
		result.Metadata.ParseTimeMs = float64(result.Metadata.ParseTime) / float64(time.Millisecond)
		p.record(result)
	}()

	observe(StageTokenizing)
	if result.Metadata.InputLength > p.maxLength {
		result.Diagnostics.Add(diag.Lexical(token.Pos{Offset: 0, Column: 1},
			"command exceeds maximum length of %d characters", p.maxLength))
		result.Tokens = []token.Token{}
		return result
	}

	tokens, lexDiags := lexer.Tokenize(command)
	result.Tokens = tokens
	result.Metadata.TokenCount = len(tokens) - 1
	result.Diagnostics.AddAll(lexDiags)

	observe(StageParsing)
	tree, parseDiags := parser.Parse(tokens)
	result.ParseTree = tree
	result.Diagnostics.AddAll(parseDiags)

	if result.Diagnostics.HasBlockingErrors() {
		return result
	}

	observe(StageSemanticAnalysis)
	a, semDiags := semantic.Analyze(tree)
	result.Diagnostics.AddAll(semDiags)
	if a == nil {
		return result
	}

	result.AST = a
	result.Semantics = semantic.Derive(a)
	result.Success = true
	return result
}

func (p *Processor) record(r *Result) {
	byStage := make(map[string]int, 3)
	if n := len(r.Diagnostics.LexerErrors); n > 0 {
		byStage[string(diag.StageLexer)] = n
	}
	if n := len(r.Diagnostics.ParseErrors); n > 0 {
		byStage[string(diag.StageParser)] = n
	}
	if n := len(r.Diagnostics.SemanticErrors); n > 0 {
		byStage[string(diag.StageSemantic)] = n
	}

	p.tracker.Record(stats.Observation{
		Success:       r.Success,
		CommandType:   r.CommandType(),
		Duration:      r.Metadata.ParseTime,
		ErrorsByStage: byStage,
	})
}

// Statistics returns the aggregate parse statistics.
func (p *Processor) Statistics() stats.Snapshot {
	return p.tracker.Snapshot()
}

// GrammarInfo describes the grammar this processor implements.
func (p *Processor) GrammarInfo() parser.GrammarDescription {
	return parser.Describe()
}

// Parse is a convenience function that parses command with a fresh processor.
func Parse(command string) *Result {
	return NewProcessor().Parse(command)
}

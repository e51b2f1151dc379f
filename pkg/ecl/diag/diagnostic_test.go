package diag

import (
	"errors"
	"strings"
	"testing"

	"rapidresq/resq/pkg/ecl/token"
)

func TestDiagnostics_AddPartitionsByStage(t *testing.T) {
	var ds Diagnostics

	ds.Add(Lexical(token.Pos{Column: 1}, "bad lexeme"))
	ds.Add(Syntax(token.Pos{Column: 3}, []string{"AT"}, "missing preposition"))
	ds.Add(Semantic(token.Pos{Column: 9}, "contact", "bad phone"))
	ds.Add(Warning(token.Pos{Column: 7}, "priority", "defaulted"))

	if len(ds.LexerErrors) != 1 {
		t.Errorf("Expected 1 lexer error, got %d", len(ds.LexerErrors))
	}
	if len(ds.ParseErrors) != 1 {
		t.Errorf("Expected 1 parse error, got %d", len(ds.ParseErrors))
	}
	if len(ds.SemanticErrors) != 1 {
		t.Errorf("Expected 1 semantic error, got %d", len(ds.SemanticErrors))
	}
	if ds.TotalErrors() != 3 {
		t.Errorf("Expected 3 total errors, got %d", ds.TotalErrors())
	}
	if ds.TotalWarnings() != 1 {
		t.Errorf("Expected 1 warning, got %d", ds.TotalWarnings())
	}
	if !ds.HasBlockingErrors() {
		t.Error("Expected blocking errors")
	}
	if len(ds.All()) != 4 {
		t.Errorf("Expected 4 diagnostics, got %d", len(ds.All()))
	}
}

func TestDiagnostics_Err(t *testing.T) {
	var ds Diagnostics
	if ds.Err() != nil {
		t.Fatal("Expected nil error for empty diagnostics")
	}

	ds.Add(Warning(token.Pos{}, "priority", "defaulted"))
	if ds.Err() != nil {
		t.Fatal("Warnings alone must not produce an error")
	}

	ds.Add(Syntax(token.Pos{Column: 5}, []string{"AT", "NEAR", "IN"}, "expected preposition"))
	err := ds.Err()
	if err == nil {
		t.Fatal("Expected error")
	}

	var list *List
	if !errors.As(err, &list) {
		t.Fatalf("Expected *List, got %T", err)
	}
	if !strings.Contains(err.Error(), "expected: AT, NEAR, IN") {
		t.Errorf("Expected expected-set in message, got %q", err.Error())
	}
}

func TestDiagnostic_Error(t *testing.T) {
	d := Lexical(token.Pos{Offset: 0, Column: 1}, "unrecognised lexeme %q", "$$$")
	d.Suggestion = "Did you mean 'ALERT'?"

	msg := d.Error()
	for _, want := range []string{"[lexer error]", `"$$$"`, "--> col 1", "suggestion: Did you mean 'ALERT'?"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in %q", want, msg)
		}
	}
}

// ============================================================================
// Suggestions
// ============================================================================

func TestSuggestions(t *testing.T) {
	tests := []struct {
		name  string
		diags []Diagnostic
		want  []string
	}{
		{
			name: "no diagnostics",
			want: nil,
		},
		{
			name:  "lexer",
			diags: []Diagnostic{Lexical(token.Pos{}, "x")},
			want:  []string{HintKeywords},
		},
		{
			name:  "parser",
			diags: []Diagnostic{Syntax(token.Pos{}, nil, "x")},
			want:  []string{HintStructure, HintPrepositions},
		},
		{
			name:  "semantic",
			diags: []Diagnostic{Semantic(token.Pos{}, "contact", "x")},
			want:  []string{HintLocation, HintContact},
		},
		{
			name: "per diagnostic suggestion deduplicated",
			diags: []Diagnostic{
				{Severity: SeverityError, Stage: StageLexer, Suggestion: "Did you mean 'ALERT'?"},
				{Severity: SeverityError, Stage: StageLexer, Suggestion: "Did you mean 'ALERT'?"},
			},
			want: []string{HintKeywords, "Did you mean 'ALERT'?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ds Diagnostics
			ds.AddAll(tt.diags)
			got := ds.Suggestions()
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Suggestion %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestSuggestKeyword(t *testing.T) {
	keywords := []string{"ALERT", "QUERY", "STATUS", "HELP"}

	tests := []struct {
		word string
		want string
	}{
		{"ALRET", "Did you mean 'ALERT'?"},
		{"qeury", "Did you mean 'QUERY'?"},
		{"STATSU", "Did you mean 'STATUS'?"},
		{"ALERT", ""},
		{"hospital", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := SuggestKeyword(tt.word, keywords); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"ALERT", "ALERT", 0},
		{"ALERT", "ALRET", 2},
		{"HELP", "HEL", 1},
		{"", "HELP", 4},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

package lexer

import (
	"reflect"
	"strings"
	"testing"

	"rapidresq/resq/pkg/ecl/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "empty",
			input: "",
			want:  []token.Kind{token.EOF},
		},
		{
			name:  "whitespace only",
			input: "   \t  ",
			want:  []token.Kind{token.EOF},
		},
		{
			name:  "full alert",
			input: "ALERT fire at Mall Road Lahore priority CRITICAL contact 1122",
			want: []token.Kind{
				token.Alert, token.Word, token.At, token.Word, token.Word, token.Word,
				token.Priority, token.PriorityLevel, token.Contact, token.Phone, token.EOF,
			},
		},
		{
			name:  "query with gps",
			input: "QUERY hospital near GPS:31.5204,74.3587",
			want:  []token.Kind{token.Query, token.Word, token.Near, token.GPS, token.EOF},
		},
		{
			name:  "gps with space",
			input: "QUERY police near GPS 24.8607,67.0011",
			want:  []token.Kind{token.Query, token.Word, token.Near, token.GPS, token.EOF},
		},
		{
			name:  "keywords are case insensitive",
			input: "alert Fire NEAR home Priority HIGH Call +92-321-1234567",
			want: []token.Kind{
				token.Alert, token.Word, token.Near, token.Word,
				token.Priority, token.PriorityLevel, token.Contact, token.Phone, token.EOF,
			},
		},
		{
			name:  "mixed case priority level is a word",
			input: "ALERT fire at High Street",
			want:  []token.Kind{token.Alert, token.Word, token.At, token.Word, token.Word, token.EOF},
		},
		{
			name:  "status id",
			input: "STATUS EMG-12345",
			want:  []token.Kind{token.Status, token.Word, token.EOF},
		},
		{
			name:  "help topic",
			input: "HELP fire emergencies",
			want:  []token.Kind{token.Help, token.Word, token.Word, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := Tokenize(tt.input)
			if len(diags) != 0 {
				t.Fatalf("Expected no diagnostics, got %v", diags)
			}
			if got := kinds(tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens, _ := Tokenize("ALERT  fire at home")

	want := []token.Pos{
		{Offset: 0, Column: 1},
		{Offset: 7, Column: 8},
		{Offset: 12, Column: 13},
		{Offset: 15, Column: 16},
		{Offset: 19, Column: 20},
	}
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d", len(want), len(tokens))
	}
	for i := range want {
		if tokens[i].Pos != want[i] {
			t.Errorf("Token %d: expected %+v, got %+v", i, want[i], tokens[i].Pos)
		}
	}
}

func TestTokenize_GPSMergedLexeme(t *testing.T) {
	tokens, _ := Tokenize("QUERY police near GPS 24.8607,67.0011")
	gps := tokens[3]
	if gps.Lexeme != "GPS:24.8607,67.0011" {
		t.Errorf("Expected merged lexeme, got %q", gps.Lexeme)
	}
	if gps.Pos.Column != 19 {
		t.Errorf("Expected column 19, got %d", gps.Pos.Column)
	}
}

func TestTokenize_UnrecognisedLexemes(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantDiags int
		wantKinds []token.Kind
	}{
		{
			name:      "symbol run",
			input:     "ALERT $$$ at home",
			wantDiags: 1,
			wantKinds: []token.Kind{token.Alert, token.At, token.Word, token.EOF},
		},
		{
			name:      "malformed gps",
			input:     "QUERY hospital near GPS:abc",
			wantDiags: 1,
			wantKinds: []token.Kind{token.Query, token.Word, token.Near, token.EOF},
		},
		{
			name:      "nan gps",
			input:     "ALERT fire at GPS:NaN,NaN",
			wantDiags: 1,
			wantKinds: []token.Kind{token.Alert, token.Word, token.At, token.EOF},
		},
		{
			name:      "infinite gps",
			input:     "ALERT fire at GPS:Inf,0",
			wantDiags: 1,
			wantKinds: []token.Kind{token.Alert, token.Word, token.At, token.EOF},
		},
		{
			name:      "two bad lexemes",
			input:     "@@ ALERT ;;",
			wantDiags: 2,
			wantKinds: []token.Kind{token.Alert, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := Tokenize(tt.input)
			if len(diags) != tt.wantDiags {
				t.Fatalf("Expected %d diagnostics, got %d: %v", tt.wantDiags, len(diags), diags)
			}
			if got := kinds(tokens); !reflect.DeepEqual(got, tt.wantKinds) {
				t.Errorf("Expected %v, got %v", tt.wantKinds, got)
			}
		})
	}
}

func TestTokenize_NonFiniteGPSIsMalformed(t *testing.T) {
	for _, input := range []string{"GPS:NaN,NaN", "GPS:Inf,0", "GPS:+Inf,10"} {
		tokens, diags := Tokenize(input)
		if len(diags) != 1 {
			t.Fatalf("%s: expected 1 diagnostic, got %d", input, len(diags))
		}
		if !strings.Contains(diags[0].Message, "malformed GPS literal") {
			t.Errorf("%s: unexpected message %q", input, diags[0].Message)
		}
		for _, tok := range tokens {
			if tok.Kind == token.GPS {
				t.Errorf("%s: expected no GPS token", input)
			}
		}
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	input := "ALERT accident at GPS:31.5497,74.3436 priority HIGH $ contact 1122"
	first, firstDiags := Tokenize(input)
	for i := 0; i < 10; i++ {
		again, againDiags := Tokenize(input)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d produced different tokens", i)
		}
		if !reflect.DeepEqual(firstDiags, againDiags) {
			t.Fatalf("Run %d produced different diagnostics", i)
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in     string
		lat    float64
		lon    float64
		wantOK bool
	}{
		{"GPS:31.5204,74.3587", 31.5204, 74.3587, true},
		{"gps:-12.5,170", -12.5, 170, true},
		{"24.8607,67.0011", 24.8607, 67.0011, true},
		{"GPS:abc", 0, 0, false},
		{"GPS:1.0", 0, 0, false},
		{"GPS:NaN,NaN", 0, 0, false},
		{"GPS:Inf,0", 0, 0, false},
		{"GPS:10,-Infinity", 0, 0, false},
		{"nan,1", 0, 0, false},
	}
	for _, tt := range tests {
		lat, lon, ok := ParseCoordinates(tt.in)
		if ok != tt.wantOK {
			t.Errorf("%s: expected ok=%v, got %v", tt.in, tt.wantOK, ok)
			continue
		}
		if ok && (lat != tt.lat || lon != tt.lon) {
			t.Errorf("%s: expected (%v,%v), got (%v,%v)", tt.in, tt.lat, tt.lon, lat, lon)
		}
	}
}

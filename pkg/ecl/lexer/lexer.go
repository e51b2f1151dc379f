// Package lexer converts a raw emergency command into a token sequence.
//
// Tokenization is a pure function of the input: the same string always
// yields the same tokens and the same lexical diagnostics.
//
// Lexemes are whitespace separated and classified in order:
//
//  1. reserved words (ALERT, QUERY, STATUS, HELP, AT, NEAR, IN, priority,
//     contact, call), matched case-insensitively
//  2. upper-case priority levels (CRITICAL, URGENT, HIGH, MEDIUM, LOW)
//  3. GPS literals, either GPS:<lat>,<lon> or GPS followed by <lat>,<lon>
//  4. phone literals (+92-321-1234567, 1122)
//  5. words
//
// An unrecognised lexeme produces one lexical diagnostic and scanning resumes
// at the next whitespace boundary.
package lexer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"rapidresq/resq/pkg/ecl/diag"
	"rapidresq/resq/pkg/ecl/token"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]+(?:-[0-9]+)*$`)
	wordPattern  = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}\-_.,'/#&()]*$`)
)

const gpsPrefix = "gps:"

// Lexer scans a single command.
type Lexer struct {
	input  string
	offset int // byte offset of the next rune
	column int // 1-based column of the next rune
}

// New returns a lexer positioned at the start of input.
func New(input string) *Lexer {
	return &Lexer{input: input, column: 1}
}

// Tokenize is a convenience wrapper around New(input).Tokenize().
func Tokenize(input string) ([]token.Token, []diag.Diagnostic) {
	return New(input).Tokenize()
}

// Tokenize scans the whole input. The returned slice always ends with a
// single EOF token positioned at the end of the input.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var (
		tokens []token.Token
		diags  []diag.Diagnostic
	)

	for {
		lexeme, pos, ok := l.nextLexeme()
		if !ok {
			break
		}

		tok, d := l.classify(lexeme, pos)
		if d != nil {
			diags = append(diags, *d)
			continue
		}
		tokens = append(tokens, tok)
	}

	tokens = append(tokens, token.Token{
		Kind: token.EOF,
		Pos:  token.Pos{Offset: len(l.input), Column: l.column},
	})
	return tokens, diags
}

// nextLexeme skips whitespace and returns the next run of non-space runes.
func (l *Lexer) nextLexeme() (string, token.Pos, bool) {
	for l.offset < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.offset:])
		if !unicode.IsSpace(r) {
			break
		}
		l.offset += size
		l.column++
	}
	if l.offset >= len(l.input) {
		return "", token.Pos{}, false
	}

	start := token.Pos{Offset: l.offset, Column: l.column}
	for l.offset < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.offset:])
		if unicode.IsSpace(r) {
			break
		}
		l.offset += size
		l.column++
	}
	return l.input[start.Offset:l.offset], start, true
}

// peekLexeme returns the next lexeme without consuming it.
func (l *Lexer) peekLexeme() (string, bool) {
	saved := *l
	lexeme, _, ok := l.nextLexeme()
	*l = saved
	return lexeme, ok
}

func (l *Lexer) classify(lexeme string, pos token.Pos) (token.Token, *diag.Diagnostic) {
	tok := token.Token{Lexeme: lexeme, Pos: pos}

	if kind := token.LookupKeyword(lexeme); kind != token.Word {
		tok.Kind = kind
		return tok, nil
	}

	if token.IsPriorityLevel(lexeme) {
		tok.Kind = token.PriorityLevel
		return tok, nil
	}

	if len(lexeme) >= len(gpsPrefix) && strings.EqualFold(lexeme[:len(gpsPrefix)], gpsPrefix) {
		if !isCoordinatePair(lexeme[len(gpsPrefix):]) {
			d := diag.Lexical(pos, "malformed GPS literal %q", lexeme)
			d.Suggestion = "Use GPS:<latitude>,<longitude>, for example GPS:31.5497,74.3436"
			return tok, &d
		}
		tok.Kind = token.GPS
		return tok, nil
	}

	// "GPS 31.52,74.35" is accepted as a single literal.
	if strings.EqualFold(lexeme, "gps") {
		if next, ok := l.peekLexeme(); ok && isCoordinatePair(next) {
			l.nextLexeme()
			tok.Kind = token.GPS
			tok.Lexeme = "GPS:" + next
			return tok, nil
		}
	}

	if phonePattern.MatchString(lexeme) {
		tok.Kind = token.Phone
		return tok, nil
	}

	if wordPattern.MatchString(lexeme) {
		tok.Kind = token.Word
		return tok, nil
	}

	d := diag.Lexical(pos, "unrecognised lexeme %q", lexeme)
	return tok, &d
}

// ParseCoordinates splits a GPS token lexeme into latitude and longitude.
// Both values must be finite; NaN and Inf are rejected.
func ParseCoordinates(lexeme string) (lat, lon float64, ok bool) {
	body := lexeme
	if len(body) >= len(gpsPrefix) && strings.EqualFold(body[:len(gpsPrefix)], gpsPrefix) {
		body = body[len(gpsPrefix):]
	}
	latStr, lonStr, found := strings.Cut(body, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, false
	}
	if !finite(lat) || !finite(lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isCoordinatePair(s string) bool {
	_, _, ok := ParseCoordinates(s)
	return ok && !strings.HasPrefix(strings.ToLower(s), gpsPrefix)
}

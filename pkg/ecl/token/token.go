// Package token defines the lexical vocabulary of the emergency command language.
package token

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical category of a token.
type Kind int

const (
	EOF Kind = iota
	Word

	// Command keywords
	Alert
	Query
	Status
	Help

	// Prepositions
	At
	Near
	In

	// Clause words
	Priority
	Contact

	// Literals
	PriorityLevel
	GPS
	Phone
)

var kindNames = map[Kind]string{
	EOF:           "EOF",
	Word:          "WORD",
	Alert:         "ALERT",
	Query:         "QUERY",
	Status:        "STATUS",
	Help:          "HELP",
	At:            "AT",
	Near:          "NEAR",
	In:            "IN",
	Priority:      "PRIORITY",
	Contact:       "CONTACT",
	PriorityLevel: "PRIORITY_LEVEL",
	GPS:           "GPS",
	Phone:         "PHONE",
}

// String returns the canonical upper-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsCommand reports whether k is one of the four command keywords.
func (k Kind) IsCommand() bool {
	return k == Alert || k == Query || k == Status || k == Help
}

// IsPreposition reports whether k is AT, NEAR or IN.
func (k Kind) IsPreposition() bool {
	return k == At || k == Near || k == In
}

// IsClauseStart reports whether k opens an optional alert clause.
func (k Kind) IsClauseStart() bool {
	return k == Priority || k == Contact || k == PriorityLevel
}

// Pos is the position of a token in the raw command.
type Pos struct {
	Offset int // byte offset, 0-based
	Column int // column, 1-based
}

// String returns "col N".
func (p Pos) String() string {
	return fmt.Sprintf("col %d", p.Column)
}

// Token is a classified lexeme. Tokens are values and never change after
// the lexer emits them.
type Token struct {
	Kind   Kind   `json:"kind"`
	Lexeme string `json:"lexeme"`
	Pos    Pos    `json:"position"`
}

// String returns a debug representation like WORD("fire")@col 7.
func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF@" + t.Pos.String()
	}
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Lexeme, t.Pos)
}

// Keywords maps lower-cased reserved words to their kind. Matching is
// case-insensitive.
var Keywords = map[string]Kind{
	"alert":    Alert,
	"query":    Query,
	"status":   Status,
	"help":     Help,
	"at":       At,
	"near":     Near,
	"in":       In,
	"priority": Priority,
	"contact":  Contact,
	"call":     Contact,
}

// PriorityLevels lists the recognised priority levels, most urgent first.
var PriorityLevels = []string{"CRITICAL", "URGENT", "HIGH", "MEDIUM", "LOW"}

// CommandKeywords lists the command keywords in canonical spelling.
var CommandKeywords = []string{"ALERT", "QUERY", "STATUS", "HELP"}

// Prepositions lists the prepositions in canonical spelling.
var Prepositions = []string{"AT", "NEAR", "IN"}

// LookupKeyword returns the keyword kind for word, or Word if it is not reserved.
func LookupKeyword(word string) Kind {
	if k, ok := Keywords[strings.ToLower(word)]; ok {
		return k
	}
	return Word
}

// IsPriorityLevel reports whether word is an upper-case priority level.
func IsPriorityLevel(word string) bool {
	for _, level := range PriorityLevels {
		if word == level {
			return true
		}
	}
	return false
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

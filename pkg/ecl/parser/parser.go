// Package parser builds a concrete parse tree from emergency command tokens.
//
// The parser is a single-pass recursive descent over a token slice with an
// explicit cursor. The first token selects the command rule through a
// dispatch table; a missing mandatory element is reported as a syntax error
// that carries the expected-token set. Errors inside optional alert clauses
// are recovered from by skipping to the next clause word, so one call reports
// every independent problem.
//
// Parse never fails outright: it always returns the (possibly partial) tree
// together with the diagnostics it collected.
package parser

import (
	"rapidresq/resq/pkg/ecl/diag"
	"rapidresq/resq/pkg/ecl/token"
)

// Parser holds the cursor over one token sequence.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

type ruleFunc func(p *Parser, root *Node)

var dispatch map[token.Kind]ruleFunc

func init() {
	dispatch = map[token.Kind]ruleFunc{
		token.Alert:  (*Parser).parseAlert,
		token.Query:  (*Parser).parseQuery,
		token.Status: (*Parser).parseStatus,
		token.Help:   (*Parser).parseHelp,
	}
}

// New returns a parser over tokens. A trailing EOF token is appended when
// the slice does not already end with one.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		var end token.Pos
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			end = token.Pos{Offset: last.Pos.Offset + len(last.Lexeme), Column: last.Pos.Column + len(last.Lexeme)}
		}
		tokens = append(append([]token.Token{}, tokens...), token.Token{Kind: token.EOF, Pos: end})
	}
	return &Parser{tokens: tokens}
}

// Parse is a convenience wrapper around New(tokens).Parse().
func Parse(tokens []token.Token) (*Node, []diag.Diagnostic) {
	return New(tokens).Parse()
}

// Parse matches the command rule and returns the tree and diagnostics.
func (p *Parser) Parse() (*Node, []diag.Diagnostic) {
	root := &Node{Rule: RuleCommand}

	first := p.peek()
	rule, ok := dispatch[first.Kind]
	if !ok {
		p.noCommand(first)
		return root, p.diags
	}

	rule(p, root)
	return root, p.diags
}

// ============================================================================
// Command rules
// ============================================================================

// alert := ALERT alertType prep location [priorityClause] [contactClause] EOF
func (p *Parser) parseAlert(root *Node) {
	n := root.add(&Node{Rule: RuleAlert})
	n.add(terminal(p.next()))

	p.parseWords(n, RuleAlertType, "alert type")
	if !p.parsePreposition(n) && !p.atLocationStart() {
		return
	}
	p.parseLocation(n)
	p.parseClauses(n)
}

// query := QUERY serviceType prep location EOF
func (p *Parser) parseQuery(root *Node) {
	n := root.add(&Node{Rule: RuleQuery})
	n.add(terminal(p.next()))

	p.parseWords(n, RuleServiceType, "service type")
	if !p.parsePreposition(n) && !p.atLocationStart() {
		return
	}
	p.parseLocation(n)
	p.expectEOF()
}

// status := STATUS requestId EOF
func (p *Parser) parseStatus(root *Node) {
	n := root.add(&Node{Rule: RuleStatus})
	n.add(terminal(p.next()))

	tok := p.peek()
	if tok.Kind != token.Word && tok.Kind != token.Phone {
		p.syntax(tok, []string{"WORD"}, "missing request identifier after STATUS")
		return
	}
	id := n.add(&Node{Rule: RuleRequestID})
	id.add(terminal(p.next()))
	p.expectEOF()
}

// help := HELP [topic] EOF
func (p *Parser) parseHelp(root *Node) {
	n := root.add(&Node{Rule: RuleHelp})
	n.add(terminal(p.next()))

	if p.peek().Kind == token.EOF {
		return
	}
	topic := n.add(&Node{Rule: RuleTopic})
	for p.peek().Kind != token.EOF {
		topic.add(terminal(p.next()))
	}
}

// ============================================================================
// Sub-rules
// ============================================================================

// parseWords matches one or more free-text tokens up to the first
// preposition, clause word or EOF.
func (p *Parser) parseWords(parent *Node, rule Rule, what string) {
	if !isFreeText(p.peek().Kind) {
		p.syntax(p.peek(), []string{"WORD"}, "missing %s", what)
		return
	}
	n := parent.add(&Node{Rule: rule})
	for isFreeText(p.peek().Kind) {
		n.add(terminal(p.next()))
	}
}

func (p *Parser) parsePreposition(parent *Node) bool {
	tok := p.peek()
	if !tok.Kind.IsPreposition() {
		p.syntax(tok, token.Prepositions, "missing preposition, found %s", describe(tok))
		return false
	}
	n := parent.add(&Node{Rule: RulePreposition})
	n.add(terminal(p.next()))
	return true
}

func (p *Parser) atLocationStart() bool {
	k := p.peek().Kind
	return k == token.GPS || isFreeText(k)
}

// location := GPS | WORD+  (greedy up to a clause word or EOF)
func (p *Parser) parseLocation(parent *Node) {
	tok := p.peek()
	if tok.Kind == token.GPS {
		n := parent.add(&Node{Rule: RuleLocation})
		n.add(terminal(p.next()))
		return
	}
	if !isFreeText(tok.Kind) {
		p.syntax(tok, []string{"WORD", "GPS"}, "missing location, found %s", describe(tok))
		return
	}

	n := parent.add(&Node{Rule: RuleLocation})
	for {
		k := p.peek().Kind
		if !isFreeText(k) && !k.IsPreposition() {
			break
		}
		n.add(terminal(p.next()))
	}
}

// parseClauses matches priority and contact clauses in any order, each at
// most once, then EOF.
func (p *Parser) parseClauses(parent *Node) {
	var havePriority, haveContact bool

	for p.peek().Kind != token.EOF {
		tok := p.peek()
		switch tok.Kind {
		case token.Priority, token.PriorityLevel:
			if havePriority {
				p.syntax(tok, []string{"CONTACT", "EOF"}, "duplicate priority clause")
				p.parsePriority(&Node{})
				continue
			}
			havePriority = true
			p.parsePriority(parent)

		case token.Contact:
			if haveContact {
				p.syntax(tok, []string{"PRIORITY", "EOF"}, "duplicate contact clause")
				p.parseContact(&Node{})
				continue
			}
			haveContact = true
			p.parseContact(parent)

		default:
			p.syntax(tok, []string{"PRIORITY", "CONTACT", "EOF"}, "unexpected %s", describe(tok))
			p.next()
			p.skipToClause()
		}
	}
}

// priorityClause := PRIORITY [value] | PRIORITY_LEVEL [PRIORITY]
func (p *Parser) parsePriority(parent *Node) {
	n := &Node{Rule: RulePriority}
	first := p.next()
	n.add(terminal(first))

	if first.Kind == token.PriorityLevel {
		if p.peek().Kind == token.Priority {
			n.add(terminal(p.next()))
		}
		parent.add(n)
		return
	}

	// Any value is taken here and judged by the semantic stage, which falls
	// back to the default level. A keyword with no value keeps the clause
	// empty.
	switch p.peek().Kind {
	case token.EOF, token.Priority, token.Contact:
	default:
		n.add(terminal(p.next()))
	}
	parent.add(n)
}

// contactClause := CONTACT value
func (p *Parser) parseContact(parent *Node) {
	n := &Node{Rule: RuleContact}
	n.add(terminal(p.next()))

	value := p.peek()
	if value.Kind != token.Phone && value.Kind != token.Word {
		p.syntax(value, []string{"PHONE"}, "contact clause requires a phone number, found %s", describe(value))
		return
	}
	n.add(terminal(p.next()))
	parent.add(n)
}

// ============================================================================
// Cursor and error helpers
// ============================================================================

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

// next consumes and returns the current token. The cursor never moves past EOF.
func (p *Parser) next() token.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) skipToClause() {
	for {
		k := p.peek().Kind
		if k == token.EOF || k.IsClauseStart() {
			return
		}
		p.next()
	}
}

func (p *Parser) expectEOF() {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return
	}
	p.syntax(tok, []string{"EOF"}, "unexpected %s after end of command", describe(tok))
	for p.peek().Kind != token.EOF {
		p.next()
	}
}

func (p *Parser) syntax(tok token.Token, expected []string, format string, args ...any) {
	p.diags = append(p.diags, diag.Syntax(tok.Pos, expected, format, args...))
}

// noCommand reports input that does not start with a command keyword. When
// no keyword appears anywhere a lexical diagnostic is added as well, with a
// spelling suggestion for the leading word.
func (p *Parser) noCommand(first token.Token) {
	found := false
	for _, t := range p.tokens {
		if t.Kind.IsCommand() {
			found = true
			break
		}
	}

	if !found {
		d := diag.Lexical(first.Pos, "no command keyword found")
		if first.Kind != token.EOF {
			d.Suggestion = diag.SuggestKeyword(first.Lexeme, token.CommandKeywords)
		}
		p.diags = append(p.diags, d)
	}

	p.syntax(first, token.CommandKeywords, "expected command keyword, found %s", describe(first))
}

// isFreeText reports whether a token of kind k may appear inside a
// multi-word type or location. Command keywords after the first token are
// ordinary words ("ALERT need help at ...").
func isFreeText(k token.Kind) bool {
	return k == token.Word || k == token.Phone || k.IsCommand()
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return tok.Kind.String() + " '" + tok.Lexeme + "'"
}

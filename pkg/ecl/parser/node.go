package parser

import (
	"strings"

	"rapidresq/resq/pkg/ecl/token"
)

// Rule names a grammar production.
type Rule string

const (
	RuleCommand     Rule = "command"
	RuleAlert       Rule = "alertCommand"
	RuleQuery       Rule = "queryCommand"
	RuleStatus      Rule = "statusCommand"
	RuleHelp        Rule = "helpCommand"
	RuleAlertType   Rule = "alertType"
	RuleServiceType Rule = "serviceType"
	RulePreposition Rule = "preposition"
	RuleLocation    Rule = "location"
	RulePriority    Rule = "priorityClause"
	RuleContact     Rule = "contactClause"
	RuleRequestID   Rule = "requestId"
	RuleTopic       Rule = "topic"
	RuleTerminal    Rule = "terminal"
)

// Node is a concrete parse tree node. A terminal node carries the token it
// matched; every other node carries children that it owns exclusively.
type Node struct {
	Rule     Rule         `json:"rule"`
	Token    *token.Token `json:"token,omitempty"`
	Children []*Node      `json:"children,omitempty"`
}

func terminal(tok token.Token) *Node {
	return &Node{Rule: RuleTerminal, Token: &tok}
}

func (n *Node) add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Child returns the first direct child with the given rule, or nil.
func (n *Node) Child(rule Rule) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Rule == rule {
			return c
		}
	}
	return nil
}

// Terminals returns the tokens under n in source order.
func (n *Node) Terminals() []token.Token {
	if n == nil {
		return nil
	}
	if n.Token != nil {
		return []token.Token{*n.Token}
	}
	var out []token.Token
	for _, c := range n.Children {
		out = append(out, c.Terminals()...)
	}
	return out
}

// Text joins the lexemes under n with single spaces.
func (n *Node) Text() string {
	toks := n.Terminals()
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Lexeme
	}
	return strings.Join(parts, " ")
}

// Pos returns the position of the first token under n.
func (n *Node) Pos() token.Pos {
	toks := n.Terminals()
	if len(toks) == 0 {
		return token.Pos{}
	}
	return toks[0].Pos
}

// String renders the tree in a compact S-expression form, useful in tests
// and CLI output.
func (n *Node) String() string {
	if n == nil {
		return "()"
	}
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.Token != nil {
		sb.WriteString(n.Token.Lexeme)
		return
	}
	sb.WriteString("(")
	sb.WriteString(string(n.Rule))
	for _, c := range n.Children {
		sb.WriteString(" ")
		c.write(sb)
	}
	sb.WriteString(")")
}

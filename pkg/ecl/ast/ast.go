// Package ast defines the typed abstract syntax tree of an emergency command.
//
// A command is one of four variants. Command is a sealed interface so that a
// type switch over *AlertCommand, *QueryCommand, *StatusCommand and
// *HelpCommand is exhaustive; each variant carries exactly its own
// attributes.
package ast

import (
	"encoding/json"
	"fmt"
)

// CommandType is the discriminator of the command union.
type CommandType string

const (
	CommandAlert  CommandType = "ALERT"
	CommandQuery  CommandType = "QUERY"
	CommandStatus CommandType = "STATUS"
	CommandHelp   CommandType = "HELP"
)

// Priority is the urgency of an alert.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityUrgent   Priority = "URGENT"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"

	// DefaultPriority applies when an alert has no valid priority clause.
	DefaultPriority = PriorityMedium
)

// ParsePriority returns the priority named by s (already upper-cased).
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(s); p {
	case PriorityCritical, PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

// Command is implemented by the four command variants only.
type Command interface {
	Type() CommandType
	attributes() map[string]any
	sealed()
}

// AlertCommand raises an emergency.
type AlertCommand struct {
	AlertType         string
	Preposition       string
	Location          Location
	Priority          Priority
	PrioritySpecified bool
	Contact           string // empty when no contact clause was given
}

// QueryCommand searches for services around a location.
type QueryCommand struct {
	ServiceType string // upper snake case, e.g. HOSPITAL, FIRE_STATION
	Preposition string
	Location    Location
}

// StatusCommand looks up a previously created request.
type StatusCommand struct {
	RequestID string
}

// HelpCommand asks for guidance on a topic.
type HelpCommand struct {
	Topic string // empty for general help
}

func (*AlertCommand) Type() CommandType  { return CommandAlert }
func (*QueryCommand) Type() CommandType  { return CommandQuery }
func (*StatusCommand) Type() CommandType { return CommandStatus }
func (*HelpCommand) Type() CommandType   { return CommandHelp }

func (*AlertCommand) sealed()  {}
func (*QueryCommand) sealed()  {}
func (*StatusCommand) sealed() {}
func (*HelpCommand) sealed()   {}

func (c *AlertCommand) attributes() map[string]any {
	attrs := map[string]any{
		"alertType":         c.AlertType,
		"preposition":       c.Preposition,
		"location":          c.Location,
		"priority":          c.Priority,
		"prioritySpecified": c.PrioritySpecified,
		"contact":           nil,
	}
	if c.Contact != "" {
		attrs["contact"] = c.Contact
	}
	return attrs
}

func (c *QueryCommand) attributes() map[string]any {
	return map[string]any{
		"serviceType": c.ServiceType,
		"preposition": c.Preposition,
		"location":    c.Location,
	}
}

func (c *StatusCommand) attributes() map[string]any {
	return map[string]any{"requestId": c.RequestID}
}

func (c *HelpCommand) attributes() map[string]any {
	attrs := map[string]any{"topic": nil}
	if c.Topic != "" {
		attrs["topic"] = c.Topic
	}
	return attrs
}

// AST is the root of a successfully parsed command.
type AST struct {
	Command Command
}

// New wraps cmd in an AST.
func New(cmd Command) *AST {
	return &AST{Command: cmd}
}

// Type returns the command discriminator.
func (a *AST) Type() CommandType {
	return a.Command.Type()
}

// Attributes returns the fixed attribute set of the command, including
// "commandType".
func (a *AST) Attributes() map[string]any {
	attrs := a.Command.attributes()
	attrs["commandType"] = a.Command.Type()
	return attrs
}

// MarshalJSON renders {"type": ..., "attributes": {...}}.
func (a *AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       CommandType    `json:"type"`
		Attributes map[string]any `json:"attributes"`
	}{a.Type(), a.Attributes()})
}

// String returns a short human-readable summary.
func (a *AST) String() string {
	switch c := a.Command.(type) {
	case *AlertCommand:
		return fmt.Sprintf("ALERT %s %s %s [%s]", c.AlertType, c.Preposition, c.Location, c.Priority)
	case *QueryCommand:
		return fmt.Sprintf("QUERY %s %s %s", c.ServiceType, c.Preposition, c.Location)
	case *StatusCommand:
		return "STATUS " + c.RequestID
	case *HelpCommand:
		if c.Topic == "" {
			return "HELP"
		}
		return "HELP " + c.Topic
	}
	return string(a.Type())
}

package parser

import "rapidresq/resq/pkg/ecl/token"

// GrammarVersion identifies the command grammar implemented by this package.
const GrammarVersion = "1.0.0"

// RuleDescription documents one production.
type RuleDescription struct {
	Name        Rule   `json:"name"`
	Production  string `json:"production"`
	Description string `json:"description"`
}

// GrammarDescription is a machine-readable description of the grammar.
type GrammarDescription struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	StartRule       Rule              `json:"startRule"`
	Rules           []RuleDescription `json:"rules"`
	CommandKeywords []string          `json:"commandKeywords"`
	Prepositions    []string          `json:"prepositions"`
	PriorityLevels  []string          `json:"priorityLevels"`
	Literals        map[string]string `json:"literals"`
	Workflow        []string          `json:"workflow"`
	Examples        []string          `json:"examples"`
}

// Examples are canonical commands, one per shape the grammar supports.
var Examples = []string{
	"ALERT fire at Mall Road Lahore priority CRITICAL contact 1122",
	"ALERT medical emergency near Karachi University contact +92-321-1234567",
	"ALERT accident at GPS:31.5497,74.3436 priority HIGH",
	"QUERY hospital near GPS:31.5204,74.3587",
	"QUERY police near GPS:24.8607,67.0011",
	"STATUS EMG-12345",
	"HELP fire emergencies",
}

// Describe returns the grammar description.
func Describe() GrammarDescription {
	return GrammarDescription{
		Name:      "EmergencyCommand",
		Version:   GrammarVersion,
		StartRule: RuleCommand,
		Rules: []RuleDescription{
			{RuleCommand, "alertCommand | queryCommand | statusCommand | helpCommand", "Entry point selected by the first keyword"},
			{RuleAlert, "ALERT alertType preposition location priorityClause? contactClause? EOF", "Raise an emergency alert"},
			{RuleQuery, "QUERY serviceType preposition location EOF", "Find nearby emergency services"},
			{RuleStatus, "STATUS requestId EOF", "Look up an existing request"},
			{RuleHelp, "HELP topic? EOF", "Emergency guidance"},
			{RuleAlertType, "WORD+", "Kind of emergency, e.g. fire, medical emergency"},
			{RuleServiceType, "WORD+", "Service to search for, e.g. hospital, police"},
			{RulePreposition, "AT | NEAR | IN", "Relation to the location"},
			{RuleLocation, "GPS | WORD+", "Coordinates or a named place"},
			{RulePriority, "PRIORITY value? | PRIORITY_LEVEL PRIORITY?", "Optional urgency; an unknown or missing level defaults to MEDIUM"},
			{RuleContact, "CONTACT (PHONE | WORD)", "Optional callback number; CALL is a synonym"},
			{RuleRequestID, "WORD | PHONE", "Identifier returned when an alert was created"},
			{RuleTopic, "ANY+", "Help topic, e.g. fire, medical"},
		},
		CommandKeywords: token.CommandKeywords,
		Prepositions:    token.Prepositions,
		PriorityLevels:  token.PriorityLevels,
		Literals: map[string]string{
			"GPS":   "GPS:<latitude>,<longitude> (or GPS <latitude>,<longitude>)",
			"PHONE": "+?digits with optional dashes, e.g. +92-321-1234567 or 1122",
			"WORD":  "letters and digits with - _ . , ' / # & ( )",
		},
		Workflow: []string{
			"Lexical analysis: raw command to token stream",
			"Syntax analysis: token stream to parse tree",
			"AST construction: parse tree to typed command",
			"Semantic validation: priority, contact and coordinate checks",
			"Semantic extraction: urgency, response estimate and search radius",
		},
		Examples: Examples,
	}
}

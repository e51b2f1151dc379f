// Package semantic turns a syntactically valid parse tree into a typed AST
// and validates the values the grammar cannot check.
//
// Rules:
//   - priority outside CRITICAL, URGENT, HIGH, MEDIUM, LOW (or absent) falls
//     back to MEDIUM with a warning
//   - contact must be a phone number of 2 to 15 digits, optionally prefixed
//     with + and grouped with dashes
//   - GPS latitude must lie in [-90, 90] and longitude in [-180, 180]
//
// Semantic errors leave the AST intact. They only prevent execution.
package semantic

import (
	"math"
	"regexp"
	"strings"

	"rapidresq/resq/pkg/ecl/ast"
	"rapidresq/resq/pkg/ecl/diag"
	"rapidresq/resq/pkg/ecl/lexer"
	"rapidresq/resq/pkg/ecl/parser"
	"rapidresq/resq/pkg/ecl/token"
)

var contactPattern = regexp.MustCompile(`^\+?[0-9]{2,15}$`)

// serviceAliases collapses plural and synonym spellings of service types.
var serviceAliases = map[string]string{
	"HOSPITALS":       "HOSPITAL",
	"AMBULANCES":      "AMBULANCE",
	"POLICE_STATION":  "POLICE",
	"POLICE_STATIONS": "POLICE",
	"FIRE_STATIONS":   "FIRE_STATION",
	"FIRE_BRIGADE":    "FIRE_STATION",
	"FIRE_SERVICE":    "FIRE_STATION",
	"RESCUE_1122":     "RESCUE",
	"PHARMACIES":      "PHARMACY",
	"CLINICS":         "CLINIC",
}

// ServiceTypes lists the service types the dispatcher knows how to search for.
var ServiceTypes = []string{"HOSPITAL", "AMBULANCE", "POLICE", "FIRE_STATION", "RESCUE", "PHARMACY", "CLINIC"}

// Analyze builds the AST for tree. It returns a nil AST only when tree does
// not contain a command, which the parser reports as a syntax error.
func Analyze(tree *parser.Node) (*ast.AST, []diag.Diagnostic) {
	a := &analyzer{}

	var cmd ast.Command
	switch {
	case tree.Child(parser.RuleAlert) != nil:
		cmd = a.alert(tree.Child(parser.RuleAlert))
	case tree.Child(parser.RuleQuery) != nil:
		cmd = a.query(tree.Child(parser.RuleQuery))
	case tree.Child(parser.RuleStatus) != nil:
		cmd = a.status(tree.Child(parser.RuleStatus))
	case tree.Child(parser.RuleHelp) != nil:
		cmd = a.help(tree.Child(parser.RuleHelp))
	default:
		return nil, nil
	}
	return ast.New(cmd), a.diags
}

type analyzer struct {
	diags []diag.Diagnostic
}

func (a *analyzer) add(d diag.Diagnostic) {
	a.diags = append(a.diags, d)
}

func (a *analyzer) alert(n *parser.Node) *ast.AlertCommand {
	cmd := &ast.AlertCommand{
		AlertType:   strings.ToLower(n.Child(parser.RuleAlertType).Text()),
		Preposition: strings.ToUpper(n.Child(parser.RulePreposition).Text()),
		Location:    a.location(n.Child(parser.RuleLocation)),
		Priority:    ast.DefaultPriority,
	}

	if p := n.Child(parser.RulePriority); p != nil {
		a.priority(p, cmd)
	} else {
		a.add(diag.Warning(n.Pos(), "priority", "no priority specified, defaulting to %s", ast.DefaultPriority))
	}

	if c := n.Child(parser.RuleContact); c != nil {
		toks := c.Terminals()
		value := toks[len(toks)-1]
		cmd.Contact = value.Lexeme
		if !ValidContact(value.Lexeme) {
			a.add(diag.Semantic(value.Pos, "contact", "invalid contact number '%s'", value.Lexeme))
		}
	}

	return cmd
}

func (a *analyzer) priority(n *parser.Node, cmd *ast.AlertCommand) {
	var value token.Token
	found := false
	for _, tok := range n.Terminals() {
		if tok.Kind != token.Priority {
			value, found = tok, true
			break
		}
	}
	if !found {
		a.add(diag.Warning(n.Pos(), "priority", "priority clause has no level, defaulting to %s", ast.DefaultPriority))
		return
	}

	if p, ok := ast.ParsePriority(strings.ToUpper(value.Lexeme)); ok {
		cmd.Priority = p
		cmd.PrioritySpecified = true
		return
	}
	a.add(diag.Warning(value.Pos, "priority", "unknown priority '%s', defaulting to %s", value.Lexeme, ast.DefaultPriority))
}

func (a *analyzer) query(n *parser.Node) *ast.QueryCommand {
	serviceNode := n.Child(parser.RuleServiceType)
	service := NormalizeServiceType(serviceNode.Text())
	if !knownService(service) {
		a.add(diag.Warning(serviceNode.Pos(), "serviceType", "unknown service type '%s', searching hospitals", service))
	}

	return &ast.QueryCommand{
		ServiceType: service,
		Preposition: strings.ToUpper(n.Child(parser.RulePreposition).Text()),
		Location:    a.location(n.Child(parser.RuleLocation)),
	}
}

func (a *analyzer) status(n *parser.Node) *ast.StatusCommand {
	return &ast.StatusCommand{RequestID: n.Child(parser.RuleRequestID).Text()}
}

func (a *analyzer) help(n *parser.Node) *ast.HelpCommand {
	return &ast.HelpCommand{Topic: strings.ToLower(n.Child(parser.RuleTopic).Text())}
}

func (a *analyzer) location(n *parser.Node) ast.Location {
	toks := n.Terminals()
	if len(toks) == 1 && toks[0].Kind == token.GPS {
		lat, lon, ok := lexer.ParseCoordinates(toks[0].Lexeme)
		loc := ast.AtGPS(lat, lon)
		if !ok || !finite(lat, lon) || !loc.Coordinates.Valid() {
			a.add(diag.Semantic(toks[0].Pos, "location",
				"GPS coordinates out of range '%s' (latitude -90..90, longitude -180..180)", toks[0].Lexeme))
		}
		return loc
	}
	return ast.Named(n.Text())
}

// ValidContact reports whether s is an acceptable callback number.
func ValidContact(s string) bool {
	return contactPattern.MatchString(strings.ReplaceAll(s, "-", ""))
}

// NormalizeServiceType converts free text such as "police stations" into the
// canonical upper snake case service type.
func NormalizeServiceType(text string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(text), "_"))
	if alias, ok := serviceAliases[s]; ok {
		return alias
	}
	return s
}

func knownService(s string) bool {
	for _, k := range ServiceTypes {
		if s == k {
			return true
		}
	}
	return false
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

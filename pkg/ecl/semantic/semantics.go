package semantic

import "rapidresq/resq/pkg/ecl/ast"

// Search radii in meters.
const (
	RadiusGPS   = 5000
	RadiusNamed = 25000
)

// Semantics is the meaning extracted from a valid command.
type Semantics struct {
	CommandType        ast.CommandType `json:"commandType"`
	Intent             string          `json:"intent"`
	UrgencyScore       int             `json:"urgencyScore,omitempty"`
	EstimatedResponse  string          `json:"estimatedResponse,omitempty"`
	SearchRadiusMeters int             `json:"searchRadiusMeters,omitempty"`
	RequiresResponse   bool            `json:"requiresResponse"`
	RequiresLookup     bool            `json:"requiresLookup,omitempty"`
	Topic              string          `json:"topic,omitempty"`
}

var urgency = map[ast.Priority]int{
	ast.PriorityCritical: 10,
	ast.PriorityUrgent:   8,
	ast.PriorityHigh:     6,
	ast.PriorityMedium:   4,
	ast.PriorityLow:      2,
}

var responseWindow = map[ast.Priority]string{
	ast.PriorityCritical: "2-4 minutes",
	ast.PriorityUrgent:   "4-6 minutes",
	ast.PriorityHigh:     "6-8 minutes",
	ast.PriorityMedium:   "8-12 minutes",
	ast.PriorityLow:      "12-20 minutes",
}

// UrgencyScore maps a priority to a score from 2 (LOW) to 10 (CRITICAL).
func UrgencyScore(p ast.Priority) int {
	if s, ok := urgency[p]; ok {
		return s
	}
	return urgency[ast.DefaultPriority]
}

// EstimatedResponse maps a priority to the expected response window.
func EstimatedResponse(p ast.Priority) string {
	if s, ok := responseWindow[p]; ok {
		return s
	}
	return responseWindow[ast.DefaultPriority]
}

// SearchRadius returns the search radius for loc in meters.
func SearchRadius(loc ast.Location) int {
	if loc.IsGPS() {
		return RadiusGPS
	}
	return RadiusNamed
}

// Derive extracts the semantics of a.
func Derive(a *ast.AST) *Semantics {
	if a == nil {
		return nil
	}

	s := &Semantics{CommandType: a.Type()}
	switch c := a.Command.(type) {
	case *ast.AlertCommand:
		s.Intent = "EMERGENCY_ALERT"
		s.UrgencyScore = UrgencyScore(c.Priority)
		s.EstimatedResponse = EstimatedResponse(c.Priority)
		s.SearchRadiusMeters = SearchRadius(c.Location)
		s.RequiresResponse = true
	case *ast.QueryCommand:
		s.Intent = "SERVICE_QUERY"
		s.SearchRadiusMeters = SearchRadius(c.Location)
		s.RequiresResponse = true
	case *ast.StatusCommand:
		s.Intent = "STATUS_LOOKUP"
		s.RequiresLookup = true
	case *ast.HelpCommand:
		s.Intent = "HELP_REQUEST"
		s.Topic = c.Topic
		if s.Topic == "" {
			s.Topic = "general"
		}
	}
	return s
}

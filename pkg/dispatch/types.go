package dispatch

import (
	"context"
	"errors"
	"time"

	"rapidresq/resq/pkg/ecl/ast"
)

// Action names the outcome of executing a command.
type Action string

const (
	ActionAlertCreated    Action = "ALERT_CREATED"
	ActionQueryExecuted   Action = "QUERY_EXECUTED"
	ActionQueryFailed     Action = "QUERY_FAILED"
	ActionStatusRetrieved Action = "STATUS_RETRIEVED"
	ActionStatusNotFound  Action = "STATUS_NOT_FOUND"
	ActionHelpProvided    Action = "HELP_PROVIDED"
)

// ErrNotFound is returned by resolvers when nothing matches.
var ErrNotFound = errors.New("not found")

// PointOfInterest is an emergency facility.
type PointOfInterest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Amenity        string  `json:"amenity"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distanceMeters"`
	Phone          string  `json:"phone,omitempty"`
	Address        string  `json:"address,omitempty"`
}

// NearbyQuery asks for facilities of one amenity around a point.
type NearbyQuery struct {
	Amenity      string
	Center       ast.Coordinates
	RadiusMeters int
	Limit        int
}

// LocationResolver geocodes place names and finds nearby facilities. It is
// implemented outside this package (see package resolver).
type LocationResolver interface {
	Geocode(ctx context.Context, name string) (ast.Coordinates, error)
	Nearby(ctx context.Context, q NearbyQuery) ([]PointOfInterest, error)
}

// StatusRecord is the tracked state of an emergency request.
type StatusRecord struct {
	RequestID        string       `json:"requestId"`
	Status           string       `json:"status"`
	AlertType        string       `json:"alertType,omitempty"`
	Location         string       `json:"location,omitempty"`
	Priority         ast.Priority `json:"priority,omitempty"`
	AssignedUnit     string       `json:"assignedUnit,omitempty"`
	EstimatedArrival string       `json:"estimatedArrival,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// StatusResolver looks up request state. Missing requests yield ErrNotFound.
type StatusResolver interface {
	Lookup(ctx context.Context, requestID string) (*StatusRecord, error)
}

// StatusRecorder stores the state of newly created requests.
type StatusRecorder interface {
	Record(ctx context.Context, rec StatusRecord) error
}

// IDSource mints request identifiers.
type IDSource interface {
	NextID() string
}

// AlertResult is the payload of ALERT_CREATED.
type AlertResult struct {
	RequestID         string            `json:"requestId"`
	Status            string            `json:"status"`
	AlertType         string            `json:"alertType"`
	Location          ast.Location      `json:"location"`
	Priority          ast.Priority      `json:"priority"`
	UrgencyScore      int               `json:"urgencyScore"`
	EstimatedResponse string            `json:"estimatedResponse"`
	Contact           string            `json:"contact,omitempty"`
	AssignedUnit      string            `json:"assignedUnit"`
	NearbyServices    []PointOfInterest `json:"nearbyServices,omitempty"`
}

// QueryResult is the payload of QUERY_EXECUTED and QUERY_FAILED.
type QueryResult struct {
	ServiceType  string            `json:"serviceType"`
	Amenity      string            `json:"amenity"`
	Center       ast.Coordinates   `json:"center"`
	Geocoded     bool              `json:"geocoded"`
	RadiusMeters int               `json:"radiusMeters"`
	Results      []PointOfInterest `json:"results"`
	TotalFound   int               `json:"totalFound"`
	Fallback     bool              `json:"fallback"`
	Error        string            `json:"error,omitempty"`
}

// HelpResult is the payload of HELP_PROVIDED.
type HelpResult struct {
	Topic            string            `json:"topic"`
	Guidance         string            `json:"guidance"`
	EmergencyNumbers map[string]string `json:"emergencyNumbers"`
}

// Response is the result of dispatching one command. Exactly one payload
// field is set, matching CommandType.
type Response struct {
	Action      Action          `json:"action"`
	CommandType ast.CommandType `json:"commandType"`
	Message     string          `json:"message"`
	Alert       *AlertResult    `json:"alert,omitempty"`
	Query       *QueryResult    `json:"query,omitempty"`
	Status      *StatusRecord   `json:"status,omitempty"`
	Help        *HelpResult     `json:"help,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

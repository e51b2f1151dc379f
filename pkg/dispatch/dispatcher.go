// Package dispatch executes parsed emergency commands.
//
// Dispatch selects a handler with an exhaustive type switch over the AST
// command variants. Handlers check their required attributes, build a
// structured payload and, for queries and status lookups, call the
// externally supplied LocationResolver and StatusResolver. A command that
// parsed but cannot be executed yields an *ExecutionError.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rapidresq/resq/pkg/ecl/ast"
	"rapidresq/resq/pkg/ecl/semantic"
)

// Default values for Options.
const (
	DefaultMaxResults    = 5
	DefaultNearbyLimit   = 3
	DefaultFallbackLimit = 3
)

// DefaultCenter is used when a named location cannot be geocoded (Lahore).
var DefaultCenter = ast.Coordinates{Latitude: 31.5204, Longitude: 74.3587}

// amenities maps service types to facility categories.
var amenities = map[string]string{
	"HOSPITAL":     "hospital",
	"AMBULANCE":    "ambulance_station",
	"RESCUE":       "ambulance_station",
	"POLICE":       "police",
	"FIRE_STATION": "fire_station",
	"PHARMACY":     "pharmacy",
	"CLINIC":       "clinic",
}

// Amenity returns the facility category for serviceType, "hospital" when unknown.
func Amenity(serviceType string) string {
	if a, ok := amenities[serviceType]; ok {
		return a
	}
	return "hospital"
}

// Options configures a Dispatcher. Nil resolvers disable the features that
// need them.
type Options struct {
	Locations     LocationResolver
	Statuses      StatusResolver
	Recorder      StatusRecorder
	IDs           IDSource
	Fallback      []PointOfInterest // returned when a query fails
	DefaultCenter *ast.Coordinates
	MaxResults    int
	NearbyLimit   int
	Logger        *slog.Logger
}

// Dispatcher executes commands.
type Dispatcher struct {
	locations  LocationResolver
	statuses   StatusResolver
	recorder   StatusRecorder
	ids        IDSource
	fallback   []PointOfInterest
	center     ast.Coordinates
	maxResults int
	nearby     int
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		locations:  opts.Locations,
		statuses:   opts.Statuses,
		recorder:   opts.Recorder,
		ids:        opts.IDs,
		fallback:   opts.Fallback,
		center:     DefaultCenter,
		maxResults: opts.MaxResults,
		nearby:     opts.NearbyLimit,
		logger:     opts.Logger,
		now:        time.Now,
	}
	if opts.DefaultCenter != nil {
		d.center = *opts.DefaultCenter
	}
	if d.maxResults <= 0 {
		d.maxResults = DefaultMaxResults
	}
	if d.nearby <= 0 {
		d.nearby = DefaultNearbyLimit
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("component", "dispatch")
	return d
}

// Dispatch executes a.
func (d *Dispatcher) Dispatch(ctx context.Context, a *ast.AST) (*Response, error) {
	if a == nil || a.Command == nil {
		return nil, &ExecutionError{Reason: "no command"}
	}

	var (
		resp *Response
		err  error
	)
	switch c := a.Command.(type) {
	case *ast.AlertCommand:
		resp, err = d.alert(ctx, c)
	case *ast.QueryCommand:
		resp, err = d.query(ctx, c)
	case *ast.StatusCommand:
		resp, err = d.status(ctx, c)
	case *ast.HelpCommand:
		resp, err = d.help(c)
	default:
		return nil, &ExecutionError{CommandType: a.Type(), Reason: fmt.Sprintf("unsupported command %T", c)}
	}
	if err != nil {
		return nil, err
	}

	resp.CommandType = a.Type()
	resp.Timestamp = d.now()
	return resp, nil
}

// ============================================================================
// Handlers
// ============================================================================

func (d *Dispatcher) alert(ctx context.Context, c *ast.AlertCommand) (*Response, error) {
	if err := missingAttrs(ast.CommandAlert, map[string]string{
		"alertType": c.AlertType,
		"location":  c.Location.String(),
	}); err != nil {
		return nil, err
	}

	id := RequestIDFromContext(ctx)
	if id == "" {
		if d.ids == nil {
			return nil, &ExecutionError{CommandType: ast.CommandAlert, Reason: "no request identifier source"}
		}
		id = d.ids.NextID()
	}

	result := &AlertResult{
		RequestID:         id,
		Status:            "DISPATCHING",
		AlertType:         c.AlertType,
		Location:          c.Location,
		Priority:          c.Priority,
		UrgencyScore:      semantic.UrgencyScore(c.Priority),
		EstimatedResponse: semantic.EstimatedResponse(c.Priority),
		Contact:           c.Contact,
		AssignedUnit:      AssignUnit(c.AlertType),
	}

	if d.locations != nil {
		center, _ := d.resolveCenter(ctx, c.Location)
		pois, err := d.locations.Nearby(ctx, NearbyQuery{
			Amenity:      alertAmenity(c.AlertType),
			Center:       center,
			RadiusMeters: semantic.SearchRadius(c.Location),
			Limit:        d.nearby,
		})
		if err != nil {
			d.logger.Warn("nearby services lookup failed", "request_id", id, "error", err)
		} else {
			result.NearbyServices = pois
		}
	}

	if d.recorder != nil {
		now := d.now()
		rec := StatusRecord{
			RequestID:        id,
			Status:           "DISPATCHING",
			AlertType:        c.AlertType,
			Location:         c.Location.String(),
			Priority:         c.Priority,
			AssignedUnit:     result.AssignedUnit,
			EstimatedArrival: result.EstimatedResponse,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := d.recorder.Record(ctx, rec); err != nil {
			d.logger.Warn("failed to record alert status", "request_id", id, "error", err)
		}
	}

	return &Response{
		Action:  ActionAlertCreated,
		Message: fmt.Sprintf("Emergency alert created with ID %s. Response units being dispatched.", id),
		Alert:   result,
	}, nil
}

func (d *Dispatcher) query(ctx context.Context, c *ast.QueryCommand) (*Response, error) {
	if err := missingAttrs(ast.CommandQuery, map[string]string{
		"serviceType": c.ServiceType,
		"location":    c.Location.String(),
	}); err != nil {
		return nil, err
	}

	center, geocoded := d.resolveCenter(ctx, c.Location)
	result := &QueryResult{
		ServiceType:  c.ServiceType,
		Amenity:      Amenity(c.ServiceType),
		Center:       center,
		Geocoded:     geocoded,
		RadiusMeters: semantic.SearchRadius(c.Location),
	}

	if d.locations == nil {
		return d.queryFailed(result, errors.New("no location resolver configured")), nil
	}

	pois, err := d.locations.Nearby(ctx, NearbyQuery{
		Amenity:      result.Amenity,
		Center:       center,
		RadiusMeters: result.RadiusMeters,
		Limit:        d.maxResults,
	})
	if err != nil {
		d.logger.Warn("service query failed", "amenity", result.Amenity, "error", err)
		return d.queryFailed(result, err), nil
	}

	result.TotalFound = len(pois)
	if len(pois) > d.maxResults {
		pois = pois[:d.maxResults]
	}
	result.Results = pois

	where := c.Location.Name
	if where == "" {
		where = "specified location"
	}
	return &Response{
		Action:  ActionQueryExecuted,
		Message: fmt.Sprintf("Found %d %s services near %s", result.TotalFound, strings.ToLower(c.ServiceType), where),
		Query:   result,
	}, nil
}

func (d *Dispatcher) queryFailed(result *QueryResult, err error) *Response {
	n := min(DefaultFallbackLimit, len(d.fallback))
	result.Results = append([]PointOfInterest(nil), d.fallback[:n]...)
	result.Fallback = true
	result.Error = err.Error()
	return &Response{
		Action:  ActionQueryFailed,
		Message: "Service lookup failed, showing fallback facilities",
		Query:   result,
	}
}

func (d *Dispatcher) status(ctx context.Context, c *ast.StatusCommand) (*Response, error) {
	if err := missingAttrs(ast.CommandStatus, map[string]string{"requestId": c.RequestID}); err != nil {
		return nil, err
	}
	if d.statuses == nil {
		return nil, &ExecutionError{CommandType: ast.CommandStatus, Reason: "no status resolver configured"}
	}

	rec, err := d.statuses.Lookup(ctx, c.RequestID)
	if errors.Is(err, ErrNotFound) {
		return &Response{
			Action:  ActionStatusNotFound,
			Message: fmt.Sprintf("No request found with ID %s", c.RequestID),
			Status:  &StatusRecord{RequestID: c.RequestID, Status: "NOT_FOUND"},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("status lookup for %s: %w", c.RequestID, err)
	}

	return &Response{
		Action:  ActionStatusRetrieved,
		Message: fmt.Sprintf("Request %s is %s.", rec.RequestID, strings.ToLower(strings.ReplaceAll(rec.Status, "_", " "))),
		Status:  rec,
	}, nil
}

func (d *Dispatcher) help(c *ast.HelpCommand) (*Response, error) {
	topic := ResolveTopic(c.Topic)
	numbers := make(map[string]string, len(EmergencyNumbers))
	for k, v := range EmergencyNumbers {
		numbers[k] = v
	}
	return &Response{
		Action:  ActionHelpProvided,
		Message: Guidance(topic),
		Help: &HelpResult{
			Topic:            topic,
			Guidance:         Guidance(topic),
			EmergencyNumbers: numbers,
		},
	}, nil
}

// ============================================================================
// Helpers
// ============================================================================

// resolveCenter returns the search centre for loc and whether it came from
// the location itself (GPS or a successful geocode).
func (d *Dispatcher) resolveCenter(ctx context.Context, loc ast.Location) (ast.Coordinates, bool) {
	if loc.IsGPS() {
		return *loc.Coordinates, true
	}
	if d.locations == nil {
		return d.center, false
	}
	c, err := d.locations.Geocode(ctx, loc.Name)
	if err != nil {
		d.logger.Debug("geocode failed, using default center", "location", loc.Name, "error", err)
		return d.center, false
	}
	return c, true
}

// AssignUnit picks the responding unit for an alert type.
func AssignUnit(alertType string) string {
	switch {
	case strings.Contains(alertType, "fire"):
		return "UNIT-16-A"
	case strings.Contains(alertType, "police"), strings.Contains(alertType, "crime"), strings.Contains(alertType, "theft"):
		return "UNIT-15-A"
	case strings.Contains(alertType, "motorway"), strings.Contains(alertType, "highway"):
		return "UNIT-130-A"
	}
	return "UNIT-1122-A"
}

func alertAmenity(alertType string) string {
	switch AssignUnit(alertType) {
	case "UNIT-16-A":
		return "fire_station"
	case "UNIT-15-A", "UNIT-130-A":
		return "police"
	}
	return "hospital"
}

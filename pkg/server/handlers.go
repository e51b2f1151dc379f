package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"rapidresq/resq/pkg/coordinator"
	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/dispatch/resolver"
	"rapidresq/resq/pkg/ecl"
	"rapidresq/resq/pkg/ecl/ast"
	"rapidresq/resq/pkg/ecl/diag"
	"rapidresq/resq/pkg/ecl/parser"
	"rapidresq/resq/pkg/ecl/semantic"
	"rapidresq/resq/pkg/ecl/stats"
	"rapidresq/resq/pkg/ecl/token"
	"rapidresq/resq/pkg/engine"
	"rapidresq/resq/pkg/server/middleware"
)

const exampleCommand = "ALERT fire at Lahore priority HIGH contact 1122"

// Example commands offered by parser-info and failed parses.
var (
	alertExamples = []string{
		"ALERT fire at Lahore priority HIGH contact 1122",
		"ALERT medical emergency at GPS:31.5497,74.3436 contact +92-321-1234567",
		"ALERT flood at Karachi priority CRITICAL",
	}
	queryExamples = []string{
		"QUERY hospital near Lahore",
		"QUERY ambulance near Karachi",
		"QUERY police near Islamabad",
	}
	statusExamples = []string{
		"STATUS request-12345",
	}
	helpExamples = []string{
		"HELP medical emergency",
		"HELP fire safety",
	}
	failureExamples = []string{
		"ALERT fire at Lahore",
		"QUERY hospital near Karachi",
		"STATUS request-12345",
		"HELP medical emergency",
	}
)

// Nearby search radius bounds in meters.
const (
	defaultNearbyRadius = 25000
	minNearbyRadius     = 500
	maxNearbyRadius     = 50000
	nearbyLimit         = 10
)

type parseRequest struct {
	Command any   `json:"command"`
	Execute *bool `json:"execute,omitempty"`
}

type concurrencyInfo struct {
	EmergencyID    string                       `json:"emergencyId,omitempty"`
	QueueStatus    *coordinator.Receipt         `json:"queueStatus,omitempty"`
	QueueError     string                       `json:"queueError,omitempty"`
	ActiveRequests int64                        `json:"activeRequests"`
	Stats          coordinator.ConcurrencyStats `json:"stats"`
}

type parseResponse struct {
	Success        bool                `json:"success"`
	Command        string              `json:"command"`
	RequestID      string              `json:"requestId"`
	State          engine.Terminal     `json:"state"`
	Transitions    []engine.State      `json:"transitions"`
	AST            *ast.AST            `json:"ast,omitempty"`
	ParseTree      *parser.Node        `json:"parseTree,omitempty"`
	Tokens         []token.Token       `json:"tokens"`
	Semantics      *semantic.Semantics `json:"semantics,omitempty"`
	Diagnostics    diag.Diagnostics    `json:"diagnostics"`
	Metadata       ecl.Metadata        `json:"metadata"`
	Suggestions    []string            `json:"suggestions,omitempty"`
	Examples       []string            `json:"examples,omitempty"`
	Concurrency    *concurrencyInfo    `json:"concurrency,omitempty"`
	Execution      *dispatch.Response  `json:"execution,omitempty"`
	ExecutionError string              `json:"executionError,omitempty"`
	DurationMs     float64             `json:"durationMs"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	command, ok := req.Command.(string)
	if !ok || strings.TrimSpace(command) == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Command text is required",
			"example": exampleCommand,
		})
		return
	}

	var opts []engine.ProcessOption
	if req.Execute != nil && !*req.Execute {
		opts = append(opts, engine.WithoutExecution())
	}

	out, err := s.engine.Process(r.Context(), command, opts...)
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	resp := parseResponse{
		Success:        out.Parse.Success,
		Command:        command,
		RequestID:      out.RequestID,
		State:          out.State,
		Transitions:    out.Transitions,
		ParseTree:      out.Parse.ParseTree,
		Tokens:         out.Parse.Tokens,
		Diagnostics:    out.Parse.Diagnostics,
		Metadata:       out.Parse.Metadata,
		Execution:      out.Response,
		ExecutionError: out.ExecutionError,
		DurationMs:     out.DurationMs,
	}

	if !out.Parse.Success {
		resp.Suggestions = out.Parse.Suggestions()
		resp.Examples = failureExamples
		middleware.WriteJSON(w, http.StatusBadRequest, resp)
		return
	}

	cs := s.engine.ConcurrencyStats()
	resp.AST = out.Parse.AST
	resp.Semantics = out.Parse.Semantics
	resp.Concurrency = &concurrencyInfo{
		EmergencyID:    out.EmergencyID,
		QueueStatus:    out.Queue,
		QueueError:     out.QueueError,
		ActiveRequests: cs.CurrentInFlight,
		Stats:          cs,
	}
	if len(out.Parse.Diagnostics.SemanticErrors) > 0 {
		resp.Suggestions = out.Parse.Suggestions()
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// writeProcessError maps a refused or abandoned request to a status code.
func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinator.ErrLockTimeout), errors.Is(err, coordinator.ErrTooManyInFlight):
		w.Header().Set("Retry-After", "1")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Service busy", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, http.StatusGatewayTimeout, "Request timed out", "")
	case errors.Is(err, context.Canceled):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Request cancelled", "")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

func (s *Server) handleParserInfo(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, struct {
		Success    bool                      `json:"success"`
		Statistics stats.Snapshot            `json:"statistics"`
		Grammar    parser.GrammarDescription `json:"grammar"`
		Examples   map[string][]string       `json:"examples"`
	}{
		Success:    true,
		Statistics: s.engine.Statistics(),
		Grammar:    s.engine.GrammarInfo(),
		Examples: map[string][]string{
			"alerts":  alertExamples,
			"queries": queryExamples,
			"status":  statusExamples,
			"help":    helpExamples,
		},
	})
}

func (s *Server) handleParserTest(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.RunExamples(r.Context())
	if err != nil {
		s.writeProcessError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*engine.ExampleReport
	}{true, report})
}

func (s *Server) handleConcurrencyStats(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   s.engine.ConcurrencyStats(),
	})
}

type demoResult struct {
	RequestID    int                  `json:"requestId"`
	Command      string               `json:"command"`
	EmergencyID  string               `json:"emergencyId,omitempty"`
	State        engine.Terminal      `json:"state"`
	QueueResult  *coordinator.Receipt `json:"queueResult,omitempty"`
	QueueError   string               `json:"queueError,omitempty"`
	ParseSuccess bool                 `json:"parseSuccess"`
}

// handleConcurrencyDemo submits DemoCommands at once and reports how each
// request fared.
func (s *Server) handleConcurrencyDemo(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.engine.ProcessAll(r.Context(), engine.DemoCommands, 0, engine.WithoutExecution())
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	results := make([]demoResult, len(outcomes))
	for i, out := range outcomes {
		results[i] = demoResult{
			RequestID:    i,
			Command:      engine.DemoCommands[i],
			EmergencyID:  out.EmergencyID,
			State:        out.State,
			QueueResult:  out.Queue,
			QueueError:   out.QueueError,
			ParseSuccess: out.Parse != nil && out.Parse.Success,
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Concurrent requests processed",
		"results": results,
		"stats":   s.engine.ConcurrencyStats(),
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	q := s.engine.Queue()
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"size":      q.Len(),
		"capacity":  q.Cap(),
		"overflows": q.Overflows(),
		"entries":   q.Snapshot(),
	})
}

func (s *Server) handleQueueDrain(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid max", "max must be a non-negative integer")
			return
		}
		limit = n
	}

	drained := s.engine.Queue().Drain(limit)
	s.logger.InfoContext(r.Context(), "queue drained", "count", len(drained))
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"drained":   drained,
		"remaining": s.engine.Queue().Len(),
	})
}

type nearbyLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil || math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid coordinates",
		})
		return
	}
	radius := nearbyRadius(q.Get("radius"))
	center := ast.Coordinates{Latitude: lat, Longitude: lon}

	hospitals, source, err := s.nearby(r.Context(), center, radius, "hospital")
	if err != nil {
		s.writeProcessError(w, err)
		return
	}
	var services []dispatch.PointOfInterest
	for _, amenity := range []string{"police", "fire_station", "ambulance_station"} {
		found, _, err := s.nearby(r.Context(), center, radius, amenity)
		if err != nil {
			s.writeProcessError(w, err)
			return
		}
		services = append(services, found...)
	}

	if source == "local" && len(hospitals) == 0 {
		for _, h := range resolver.FallbackHospitals() {
			if d := resolver.Distance(center, ast.Coordinates{Latitude: h.Latitude, Longitude: h.Longitude}); d <= float64(radius) {
				h.DistanceMeters = math.Round(d)
				hospitals = append(hospitals, h)
			}
		}
		source = "fallback"
	}
	if hospitals == nil {
		hospitals = []dispatch.PointOfInterest{}
	}
	if services == nil {
		services = []dispatch.PointOfInterest{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"hospitals":         hospitals,
		"emergencyServices": services,
		"radius":            radius,
		"dataSource":        source,
		"location":          nearbyLocation{Lat: lat, Lon: lon},
	})
}

// nearby queries the resolver. A centre outside the covered area yields no
// results with source "none"; other resolver errors are returned.
func (s *Server) nearby(ctx context.Context, center ast.Coordinates, radius int, amenity string) ([]dispatch.PointOfInterest, string, error) {
	found, err := s.locations.Nearby(ctx, dispatch.NearbyQuery{
		Amenity:      amenity,
		Center:       center,
		RadiusMeters: radius,
		Limit:        nearbyLimit,
	})
	switch {
	case errors.Is(err, resolver.ErrOutOfCoverage), errors.Is(err, dispatch.ErrNotFound):
		return nil, "none", nil
	case err != nil:
		return nil, "", err
	}
	return found, "local", nil
}

func nearbyRadius(v string) int {
	radius := defaultNearbyRadius
	if v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			radius = n
		}
	}
	return min(max(radius, minNearbyRadius), maxNearbyRadius)
}

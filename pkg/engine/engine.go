// Package engine runs the full lifecycle of an emergency command request.
//
// A request moves through
//
//	RECEIVED → TOKENIZING → PARSING → SEMANTIC_ANALYSIS → SUCCESS | FAILED
//
// and, when the command parsed without semantic errors,
//
//	SUCCESS → EXECUTING → RESPONSE
//
// Parsing happens inside the coordinator's guard together with the
// configured simulated latency. After the guard is released the engine mints
// an emergency identifier, enqueues the raw command and dispatches the AST.
//
// # Errors
//
// Process returns an error only when the request could not be admitted or
// the guard could not be acquired (*coordinator.ConcurrencyError), or when
// the caller's context ended. Parse failures, queue overflow and execution
// failures are reported through the Outcome.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"rapidresq/resq/pkg/coordinator"
	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/ecl"
	"rapidresq/resq/pkg/ecl/parser"
	"rapidresq/resq/pkg/ecl/stats"
	"rapidresq/resq/pkg/telemetry/logging"
	"rapidresq/resq/pkg/telemetry/tracing"
)

// Tracer starts spans. Both an OpenTelemetry trace.Tracer and
// *tracing.Tracer satisfy it.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Observer receives per-request measurements, typically a metrics collector.
type Observer interface {
	ObserveParse(result *ecl.Result)
	ObserveDispatch(commandType string, action string, d time.Duration, err error)
	ObserveOutcome(terminal string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveParse(*ecl.Result)                            {}
func (nopObserver) ObserveDispatch(string, string, time.Duration, error) {}
func (nopObserver) ObserveOutcome(string, time.Duration)                 {}

// LatencyFunc returns how long to wait inside the guard for one request.
type LatencyFunc func() time.Duration

// UniformLatency returns a LatencyFunc drawing uniformly from [lo, hi].
func UniformLatency(lo, hi time.Duration) LatencyFunc {
	if hi < lo {
		lo, hi = hi, lo
	}
	return func() time.Duration {
		if hi == lo {
			return lo
		}
		return lo + rand.N(hi-lo+1)
	}
}

// Options configures an Engine. Processor and Coordinator default to fresh
// instances; a nil Dispatcher disables execution.
type Options struct {
	Processor   *ecl.Processor
	Coordinator *coordinator.Coordinator
	Dispatcher  *dispatch.Dispatcher
	Latency     LatencyFunc
	Tracer      Tracer
	Observer    Observer
	Logger      *slog.Logger
}

// Outcome is the result of processing one request.
type Outcome struct {
	RequestID      string               `json:"requestId"`
	EmergencyID    string               `json:"emergencyId,omitempty"`
	State          Terminal             `json:"state"`
	Transitions    []State              `json:"transitions"`
	Parse          *ecl.Result          `json:"parse"`
	Response       *dispatch.Response   `json:"response,omitempty"`
	ExecutionError string               `json:"executionError,omitempty"`
	Queue          *coordinator.Receipt `json:"queue,omitempty"`
	QueueError     string               `json:"queueError,omitempty"`
	Duration       time.Duration        `json:"-"`
	DurationMs     float64              `json:"durationMs"`
}

// Executed reports whether the command was dispatched successfully.
func (o *Outcome) Executed() bool {
	return o.State == TerminalExecuted
}

func (o *Outcome) enter(s State) {
	o.Transitions = append(o.Transitions, s)
}

// processConfig holds per-call settings.
type processConfig struct {
	execute bool
}

// ProcessOption adjusts a single Process call.
type ProcessOption func(*processConfig)

// WithoutExecution stops the request after analysis.
func WithoutExecution() ProcessOption {
	return func(c *processConfig) { c.execute = false }
}

// Engine processes requests. It is safe for concurrent use.
type Engine struct {
	processor  *ecl.Processor
	coord      *coordinator.Coordinator
	dispatcher *dispatch.Dispatcher
	latency    LatencyFunc
	tracer     Tracer
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an engine.
func New(opts Options) *Engine {
	e := &Engine{
		processor:  opts.Processor,
		coord:      opts.Coordinator,
		dispatcher: opts.Dispatcher,
		latency:    opts.Latency,
		tracer:     opts.Tracer,
		observer:   opts.Observer,
		logger:     opts.Logger,
		now:        time.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "engine")
	if e.processor == nil {
		e.processor = ecl.NewProcessor()
	}
	if e.coord == nil {
		e.coord = coordinator.New(coordinator.Options{Logger: opts.Logger})
	}
	if e.latency == nil {
		e.latency = func() time.Duration { return 0 }
	}
	if e.tracer == nil {
		e.tracer = noop.NewTracerProvider().Tracer("rapidresq/resq/engine")
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	return e
}

// Process runs command through the lifecycle.
func (e *Engine) Process(ctx context.Context, command string, opts ...ProcessOption) (*Outcome, error) {
	cfg := processConfig{execute: e.dispatcher != nil}
	for _, opt := range opts {
		opt(&cfg)
	}
	if e.dispatcher == nil {
		cfg.execute = false
	}

	start := e.now()
	out := &Outcome{RequestID: logging.GetRequestID(ctx)}
	if out.RequestID == "" {
		out.RequestID = uuid.NewString()
		ctx = logging.WithRequestID(ctx, out.RequestID)
	}
	out.enter(StateReceived)

	ctx, span := e.tracer.Start(ctx, "engine.process",
		trace.WithAttributes(tracing.RequestAttributes(out.RequestID, command)...))
	defer span.End()

	defer func() {
		out.Duration = e.now().Sub(start)
		out.DurationMs = float64(out.Duration) / float64(time.Millisecond)
		e.observer.ObserveOutcome(string(out.State), out.Duration)
		span.SetAttributes(tracing.AttrOutcomeState.String(string(out.State)))
	}()

	done, err := e.coord.Tracker().Begin()
	if err != nil {
		return e.fail(ctx, span, out, err)
	}
	defer done()

	result, err := e.parseGuarded(ctx, command, out)
	if err != nil {
		return e.fail(ctx, span, out, err)
	}
	out.Parse = result
	e.observer.ObserveParse(result)

	out.EmergencyID = e.coord.NextID()
	ctx = logging.WithEmergencyID(ctx, out.EmergencyID)
	span.SetAttributes(tracing.AttrEmergencyID.String(out.EmergencyID))

	if receipt, qerr := e.coord.Enqueue(command); qerr != nil {
		out.QueueError = qerr.Error()
	} else {
		out.Queue = &receipt
		span.SetAttributes(tracing.AttrQueueSize.Int(receipt.QueueSize))
	}

	if !result.Success {
		out.enter(StateFailed)
		out.State = TerminalFailed
		span.SetStatus(codes.Error, "parse failed")
		e.logger.InfoContext(ctx, "command rejected",
			"lexer_errors", len(result.Diagnostics.LexerErrors),
			"parse_errors", len(result.Diagnostics.ParseErrors),
		)
		return out, nil
	}

	out.enter(StateSuccess)
	ctx = logging.WithCommandType(ctx, result.CommandType())
	span.SetAttributes(tracing.AttrCommandType.String(result.CommandType()))

	if !cfg.execute || !result.Executable() {
		out.State = TerminalNotExecuted
		e.logger.InfoContext(ctx, "command parsed",
			"executable", result.Executable(),
			"semantic_errors", len(result.Diagnostics.SemanticErrors),
			"warnings", len(result.Diagnostics.Warnings),
		)
		return out, nil
	}

	out.enter(StateExecuting)
	if err := e.execute(ctx, result, out); err != nil {
		if ctx.Err() != nil {
			return e.fail(ctx, span, out, ctx.Err())
		}
		out.ExecutionError = err.Error()
		out.State = TerminalNotExecuted
		e.logger.WarnContext(ctx, "command not executed", "error", err)
		return out, nil
	}

	out.enter(StateResponse)
	out.State = TerminalExecuted
	span.SetStatus(codes.Ok, "")
	e.logger.InfoContext(ctx, "command executed", "action", out.Response.Action)
	return out, nil
}

// parseGuarded runs the parser and the simulated latency inside the guard.
func (e *Engine) parseGuarded(ctx context.Context, command string, out *Outcome) (*ecl.Result, error) {
	release, err := e.coord.Guard().Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	_, span := e.tracer.Start(ctx, "ecl.parse")
	defer span.End()

	result := e.processor.ParseObserved(command, func(s ecl.Stage) {
		out.enter(State(s))
	})
	span.SetAttributes(tracing.ParseAttributes(result)...)

	if d := e.latency(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return result, nil
}

func (e *Engine) execute(ctx context.Context, result *ecl.Result, out *Outcome) error {
	ctx, span := e.tracer.Start(ctx, "dispatch."+result.CommandType())
	defer span.End()

	start := e.now()
	resp, err := e.dispatcher.Dispatch(dispatch.WithRequestID(ctx, out.EmergencyID), result.AST)
	action := ""
	if resp != nil {
		action = string(resp.Action)
	}
	e.observer.ObserveDispatch(result.CommandType(), action, e.now().Sub(start), err)

	if err != nil {
		tracing.SetError(span, err)
		return err
	}
	span.SetAttributes(tracing.AttrDispatchAction.String(action))
	out.Response = resp
	return nil
}

func (e *Engine) fail(ctx context.Context, span trace.Span, out *Outcome, err error) (*Outcome, error) {
	out.enter(StateFailed)
	out.State = TerminalFailed
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var ce *coordinator.ConcurrencyError
	if errors.As(err, &ce) {
		e.logger.WarnContext(ctx, "request refused", "op", ce.Op, "error", err)
	} else {
		e.logger.InfoContext(ctx, "request abandoned", "error", err)
	}
	return out, err
}

// Statistics returns the aggregate parse statistics.
func (e *Engine) Statistics() stats.Snapshot {
	return e.processor.Statistics()
}

// ConcurrencyStats returns the coordinator counters.
func (e *Engine) ConcurrencyStats() coordinator.ConcurrencyStats {
	return e.coord.Snapshot()
}

// GrammarInfo describes the accepted grammar.
func (e *Engine) GrammarInfo() parser.GrammarDescription {
	return e.processor.GrammarInfo()
}

// Queue exposes the request queue for consumers.
func (e *Engine) Queue() *coordinator.Queue {
	return e.coord.Queue()
}

// Coordinator returns the engine's coordinator.
func (e *Engine) Coordinator() *coordinator.Coordinator {
	return e.coord
}

package tracing

import (
	"fmt"
	"sort"
	"strings"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampling strategies accepted in telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
	// SamplerParent records only requests whose caller sent a sampled
	// traceparent. Commands without an upstream trace are not recorded.
	SamplerParent = "parent"
)

var rootSamplers = map[string]func(ratio float64) sdktrace.Sampler{
	SamplerAlways: func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	SamplerNever:  func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	SamplerRatio:  sdktrace.TraceIDRatioBased,
	SamplerParent: func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
}

// Strategies lists the accepted sampler names in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(rootSamplers))
	for name := range rootSamplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// createSampler returns the sampler for strategy. Every strategy is
// parent-based: a sampled incoming traceparent keeps the whole request
// (parse, dispatch, queue) in one trace.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	root, ok := rootSamplers[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: %s)", strategy, strings.Join(Strategies(), ", "))
	}
	if strategy == SamplerRatio && (ratio < 0 || ratio > 1) {
		return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}
	return sdktrace.ParentBased(root(ratio)), nil
}

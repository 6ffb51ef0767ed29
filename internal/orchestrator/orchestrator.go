package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/complyd/internal/gate"
	"github.com/fyrsmithlabs/complyd/internal/metrics"
)

const (
	// DefaultMaxConcurrent bounds the gate evaluation worker pool.
	DefaultMaxConcurrent = 10

	// DefaultGateTimeout bounds a single gate evaluation, including any
	// call it makes to the semantic collaborator.
	DefaultGateTimeout = 5 * time.Second
)

// Config configures the orchestrator.
type Config struct {
	// MaxConcurrent is the worker pool size (default: 10).
	MaxConcurrent int

	// GateTimeout is the per-gate evaluation budget (default: 5s).
	GateTimeout time.Duration
}

// Orchestrator runs all applicable gates for requested modules
// concurrently, with per-gate timeout and failure isolation.
type Orchestrator struct {
	registry *gate.Registry
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates an orchestrator over a gate registry.
func New(registry *gate.Registry, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("orchestrator: registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.GateTimeout <= 0 {
		cfg.GateTimeout = DefaultGateTimeout
	}
	return &Orchestrator{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// SetMetrics sets the metrics tracker; optional.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) {
	o.metrics = m
}

// gateOutcome pairs a gate id with its result for channel collection.
type gateOutcome struct {
	id     string
	result *gate.Result
}

// Evaluate runs every gate of the requested modules against the document.
//
// The relevance filter runs first for each gate; irrelevant gates yield
// NOT_APPLICABLE without their evaluation function ever being called.
// Relevant gates run on a bounded worker pool, each under the configured
// timeout. The returned result always contains exactly one entry per
// resolved gate, whatever mix of passes, failures, and errors occurred.
func (o *Orchestrator) Evaluate(ctx context.Context, doc *gate.Document, modules []string, ec *gate.EvalContext) (*ValidationResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("orchestrator: document is required")
	}

	gates := o.registry.ForModules(modules)
	results := make(map[string]*gate.Result, len(gates))

	// Relevance is cheap and synchronous; only relevant gates hit the
	// worker pool.
	var relevant []gate.Gate
	for _, g := range gates {
		if g.Relevant(doc, ec) {
			relevant = append(relevant, g)
			continue
		}
		results[g.ID()] = &gate.Result{
			GateID:   g.ID(),
			Module:   g.Module(),
			Status:   gate.StatusNotApplicable,
			Severity: g.Severity(),
		}
		o.record(g.ID(), gate.StatusNotApplicable, 0)
	}

	outcomes := make(chan gateOutcome, len(relevant))
	sem := make(chan struct{}, o.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for _, g := range relevant {
		wg.Add(1)
		go func(g gate.Gate) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes <- gateOutcome{id: g.ID(), result: o.cancelledResult(g)}
				return
			}

			outcomes <- gateOutcome{id: g.ID(), result: o.evaluateOne(ctx, g, doc, ec)}
		}(g)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		results[outcome.id] = outcome.result
	}

	degraded := ec != nil && ec.Degraded
	return newValidationResult(results, degraded), nil
}

// evaluateOne runs a single gate to completion, timeout, or cancellation.
// The gate runs in its own goroutine so a gate that ignores cancellation
// cannot stall the batch; its late result is discarded.
func (o *Orchestrator) evaluateOne(ctx context.Context, g gate.Gate, doc *gate.Document, ec *gate.EvalContext) *gate.Result {
	gateCtx, cancel := context.WithTimeout(ctx, o.cfg.GateTimeout)
	defer cancel()

	type evalReturn struct {
		violations []gate.Violation
		err        error
	}
	done := make(chan evalReturn, 1)

	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- evalReturn{err: fmt.Errorf("gate panicked: %v", r)}
			}
		}()
		violations, err := g.Evaluate(gateCtx, doc, ec)
		done <- evalReturn{violations: violations, err: err}
	}()

	select {
	case ret := <-done:
		duration := time.Since(start)
		if ret.err != nil {
			if errors.Is(ret.err, context.Canceled) {
				return o.cancelledResult(g)
			}
			o.logger.Warn("gate evaluation failed",
				zap.String("gate", g.ID()),
				zap.Duration("duration", duration),
				zap.Error(ret.err))
			o.record(g.ID(), gate.StatusError, duration)
			return &gate.Result{
				GateID:   g.ID(),
				Module:   g.Module(),
				Status:   gate.StatusError,
				Severity: g.Severity(),
				Duration: duration,
				Err:      ret.err.Error(),
			}
		}
		result := &gate.Result{
			GateID:     g.ID(),
			Module:     g.Module(),
			Status:     statusFor(ret.violations),
			Severity:   g.Severity(),
			Violations: ret.violations,
			Duration:   duration,
		}
		o.record(g.ID(), result.Status, duration)
		return result

	case <-gateCtx.Done():
		duration := time.Since(start)
		if ctx.Err() != nil {
			return o.cancelledResult(g)
		}
		o.logger.Warn("gate evaluation timeout",
			zap.String("gate", g.ID()),
			zap.Duration("timeout", o.cfg.GateTimeout))
		if o.metrics != nil {
			o.metrics.GateTimeoutsTotal.WithLabelValues(g.ID()).Inc()
		}
		o.record(g.ID(), gate.StatusError, duration)
		return &gate.Result{
			GateID:   g.ID(),
			Module:   g.Module(),
			Status:   gate.StatusError,
			Severity: g.Severity(),
			Duration: duration,
			Err:      fmt.Sprintf("evaluation exceeded %s timeout", o.cfg.GateTimeout),
		}
	}
}

// cancelledResult records a gate whose evaluation was cancelled by the
// caller before it completed.
func (o *Orchestrator) cancelledResult(g gate.Gate) *gate.Result {
	return &gate.Result{
		GateID:   g.ID(),
		Module:   g.Module(),
		Status:   gate.StatusError,
		Severity: g.Severity(),
		Err:      "evaluation cancelled",
	}
}

// statusFor classifies a completed evaluation: CRITICAL or HIGH violations
// fail the gate, anything lower warns.
func statusFor(violations []gate.Violation) gate.Status {
	if len(violations) == 0 {
		return gate.StatusPass
	}
	for _, v := range violations {
		if v.Severity.Rank() >= gate.SeverityHigh.Rank() {
			return gate.StatusFail
		}
	}
	return gate.StatusWarning
}

// record updates metrics for one gate outcome.
func (o *Orchestrator) record(id string, status gate.Status, d time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.GateEvaluationsTotal.WithLabelValues(id, string(status)).Inc()
	if d > 0 {
		o.metrics.GateDuration.WithLabelValues(id).Observe(d.Seconds())
	}
}

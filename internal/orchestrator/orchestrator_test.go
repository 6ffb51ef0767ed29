package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/complyd/internal/gate"
)

// stubGate is a configurable test gate.
type stubGate struct {
	id         string
	module     string
	severity   gate.Severity
	relevant   bool
	violations []gate.Violation
	err        error
	panics     bool
	delay      time.Duration
	ignoreCtx  bool
}

func (s *stubGate) ID() string              { return s.id }
func (s *stubGate) Module() string          { return s.module }
func (s *stubGate) Severity() gate.Severity { return s.severity }
func (s *stubGate) Relevant(doc *gate.Document, ec *gate.EvalContext) bool {
	return s.relevant
}

func (s *stubGate) Evaluate(ctx context.Context, doc *gate.Document, ec *gate.EvalContext) ([]gate.Violation, error) {
	if s.panics {
		panic("stub gate panic")
	}
	if s.delay > 0 {
		if s.ignoreCtx {
			time.Sleep(s.delay)
		} else {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return s.violations, s.err
}

func newTestOrchestrator(t *testing.T, gates ...gate.Gate) *Orchestrator {
	t.Helper()
	reg := gate.NewRegistry()
	require.NoError(t, reg.RegisterAll(gates))
	o, err := New(reg, Config{GateTimeout: 200 * time.Millisecond}, nil)
	require.NoError(t, err)
	return o
}

func passGate(id string) *stubGate {
	return &stubGate{id: id, module: "m", severity: gate.SeverityHigh, relevant: true}
}

func TestEvaluate_AggregatesAllGates(t *testing.T) {
	failing := passGate("m/fail")
	failing.violations = []gate.Violation{{
		GateID:   "m/fail",
		Category: "c",
		Span:     gate.Span{Start: 0, End: 4},
		Severity: gate.SeverityHigh,
	}}
	warning := passGate("m/warn")
	warning.violations = []gate.Violation{{
		GateID:   "m/warn",
		Category: "c",
		Span:     gate.Span{Start: 5, End: 9},
		Severity: gate.SeverityLow,
	}}
	skipped := passGate("m/skip")
	skipped.relevant = false

	o := newTestOrchestrator(t, passGate("m/pass"), failing, warning, skipped)
	doc := gate.NewDocument("some text", "any", nil)

	vr, err := o.Evaluate(context.Background(), doc, []string{"m"}, nil)
	require.NoError(t, err)

	require.Len(t, vr.Results, 4)
	assert.Equal(t, gate.StatusPass, vr.Results["m/pass"].Status)
	assert.Equal(t, gate.StatusFail, vr.Results["m/fail"].Status)
	assert.Equal(t, gate.StatusWarning, vr.Results["m/warn"].Status)
	assert.Equal(t, gate.StatusNotApplicable, vr.Results["m/skip"].Status)

	assert.Equal(t, 4, vr.Summary.Total)
	assert.Equal(t, 1, vr.Summary.Passed)
	assert.Equal(t, 1, vr.Summary.Failed)
	assert.Equal(t, 1, vr.Summary.Warnings)
	assert.Equal(t, 1, vr.Summary.NotApplicable)
	assert.Equal(t, 1, vr.Summary.BySeverity[gate.SeverityHigh])
}

func TestEvaluate_IrrelevantGateNeverEvaluated(t *testing.T) {
	g := &stubGate{id: "m/never", module: "m", severity: gate.SeverityHigh, relevant: false, panics: true}
	o := newTestOrchestrator(t, g)

	vr, err := o.Evaluate(context.Background(), gate.NewDocument("text", "any", nil), []string{"m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, gate.StatusNotApplicable, vr.Results["m/never"].Status)
}

func TestEvaluate_FailureIsolation(t *testing.T) {
	erroring := passGate("m/error")
	erroring.err = errors.New("boom")
	panicking := passGate("m/panic")
	panicking.panics = true

	o := newTestOrchestrator(t, passGate("m/ok-a"), erroring, panicking, passGate("m/ok-b"))

	vr, err := o.Evaluate(context.Background(), gate.NewDocument("text", "any", nil), []string{"m"}, nil)
	require.NoError(t, err)

	assert.Equal(t, gate.StatusPass, vr.Results["m/ok-a"].Status)
	assert.Equal(t, gate.StatusPass, vr.Results["m/ok-b"].Status)
	assert.Equal(t, gate.StatusError, vr.Results["m/error"].Status)
	assert.Equal(t, "boom", vr.Results["m/error"].Err)
	assert.Equal(t, gate.StatusError, vr.Results["m/panic"].Status)
	assert.Contains(t, vr.Results["m/panic"].Err, "panicked")
	assert.Equal(t, 2, vr.Summary.Errors)
}

func TestEvaluate_Timeout(t *testing.T) {
	slow := passGate("m/slow")
	slow.delay = 2 * time.Second
	slow.ignoreCtx = true // keeps running; its result must be discarded

	o := newTestOrchestrator(t, slow, passGate("m/fast"))

	start := time.Now()
	vr, err := o.Evaluate(context.Background(), gate.NewDocument("text", "any", nil), []string{"m"}, nil)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second, "timeout must not wait for the stray goroutine")
	assert.Equal(t, gate.StatusError, vr.Results["m/slow"].Status)
	assert.Contains(t, vr.Results["m/slow"].Err, "timeout")
	assert.Equal(t, gate.StatusPass, vr.Results["m/fast"].Status)
}

func TestEvaluate_Cancellation(t *testing.T) {
	slow := passGate("m/slow")
	slow.delay = 5 * time.Second

	o := newTestOrchestrator(t, slow)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	vr, err := o.Evaluate(ctx, gate.NewDocument("text", "any", nil), []string{"m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, gate.StatusError, vr.Results["m/slow"].Status)
	assert.Equal(t, "evaluation cancelled", vr.Results["m/slow"].Err)
}

func TestEvaluate_ContentDeterministicAcrossRuns(t *testing.T) {
	gates := []gate.Gate{}
	for _, id := range []string{"m/a", "m/b", "m/c", "m/d", "m/e"} {
		g := passGate(id)
		g.violations = []gate.Violation{{
			GateID:   id,
			Category: "c",
			Span:     gate.Span{Start: 0, End: 1},
			Severity: gate.SeverityMedium,
		}}
		gates = append(gates, g)
	}
	o := newTestOrchestrator(t, gates...)
	doc := gate.NewDocument("abcdef", "any", nil)

	first, err := o.Evaluate(context.Background(), doc, []string{"m"}, nil)
	require.NoError(t, err)
	second, err := o.Evaluate(context.Background(), doc, []string{"m"}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Violations(), second.Violations())
	assert.Equal(t, first.Summary, second.Summary)
}

func TestValidationResult_Filter(t *testing.T) {
	low := passGate("m/low")
	low.severity = gate.SeverityLow
	o := newTestOrchestrator(t, passGate("m/high"), low)

	vr, err := o.Evaluate(context.Background(), gate.NewDocument("text", "any", nil), []string{"m"}, nil)
	require.NoError(t, err)

	filtered := vr.Filter(gate.SeverityHigh)
	assert.Len(t, filtered.Results, 1)
	assert.Contains(t, filtered.Results, "m/high")

	// Unfiltered result still holds everything; filtering never changes
	// which gates executed.
	assert.Len(t, vr.Results, 2)
}

func TestEvaluate_DegradedFlagPropagates(t *testing.T) {
	o := newTestOrchestrator(t, passGate("m/a"))

	vr, err := o.Evaluate(context.Background(), gate.NewDocument("text", "any", nil), []string{"m"}, &gate.EvalContext{Degraded: true})
	require.NoError(t, err)
	assert.True(t, vr.Degraded)
}

package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/complyd/internal/catalogue"
	"github.com/fyrsmithlabs/complyd/internal/gate"
	"github.com/fyrsmithlabs/complyd/internal/metrics"
	"github.com/fyrsmithlabs/complyd/internal/orchestrator"
	"github.com/fyrsmithlabs/complyd/internal/semantic"
	"github.com/fyrsmithlabs/complyd/internal/synthesis"
)

// ErrInvalidRequest marks errors caused by the caller's request rather
// than by the engine.
var ErrInvalidRequest = errors.New("invalid request")

// IsRequestError reports whether err is the caller's fault.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// Service wires the orchestrator, synthesizer, and catalogue store into
// the validate/correct operations.
type Service struct {
	store     *catalogue.Store
	orch      *orchestrator.Orchestrator
	synth     *synthesis.Synthesizer
	annotator semantic.Annotator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New creates the service. annotator may be nil; validation then runs
// pattern-only without being marked degraded.
func New(store *catalogue.Store, orch *orchestrator.Orchestrator, synth *synthesis.Synthesizer, annotator semantic.Annotator, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("compliance: catalogue store is required")
	}
	if orch == nil {
		return nil, fmt.Errorf("compliance: orchestrator is required")
	}
	if synth == nil {
		return nil, fmt.Errorf("compliance: synthesizer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if annotator == nil {
		annotator = semantic.Nop{}
	}
	return &Service{
		store:     store,
		orch:      orch,
		synth:     synth,
		annotator: annotator,
		logger:    logger,
	}, nil
}

// SetMetrics sets the metrics tracker; optional.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Validate evaluates the requested modules against the document.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	if err := validateCommon(req.Text, req.Modules); err != nil {
		return nil, err
	}
	s.count("validate")

	doc := gate.NewDocument(req.Text, req.DocumentType, req.Context)
	vr, err := s.evaluate(ctx, doc, req.Modules)
	if err != nil {
		return nil, err
	}

	if req.SeverityThreshold != "" {
		threshold, err := gate.ParseSeverity(req.SeverityThreshold)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
		vr = vr.Filter(threshold)
	}

	return &ValidateResponse{
		RequestID:  uuid.NewString(),
		Validation: vr,
	}, nil
}

// Correct evaluates the document and synthesizes corrections against the
// catalogue snapshot current at the start of the request.
func (s *Service) Correct(ctx context.Context, req CorrectRequest) (*CorrectResponse, error) {
	if err := validateCommon(req.Text, req.Modules); err != nil {
		return nil, err
	}
	s.count("correct")

	// One snapshot for the whole request; a concurrent reload must not
	// change the rules mid-synthesis.
	snapshot := s.store.Snapshot()

	doc := gate.NewDocument(req.Text, req.DocumentType, req.Context)
	vr, err := s.evaluate(ctx, doc, req.Modules)
	if err != nil {
		return nil, err
	}

	result, err := s.synth.Synthesize(ctx, doc, vr, snapshot)
	if err != nil {
		return nil, fmt.Errorf("compliance: synthesis failed: %w", err)
	}

	if !req.PreserveFormatting {
		result.Corrected = normalizeTrailing(result.Corrected)
		result.RefreshDiff()
	}
	if !req.AutoApply {
		result.Corrected = result.Original
	}

	return &CorrectResponse{
		RequestID:  uuid.NewString(),
		Applied:    req.AutoApply,
		Validation: vr,
		Result:     result,
	}, nil
}

// evaluate annotates the document and runs the orchestrator. Collaborator
// failure degrades to pattern-only mode; it never fails the request.
func (s *Service) evaluate(ctx context.Context, doc *gate.Document, modules []string) (*orchestrator.ValidationResult, error) {
	ec := &gate.EvalContext{Hints: map[string]string{}}
	for k, v := range doc.Context {
		ec.Hints[k] = v
	}

	ann, err := s.annotator.Analyze(ctx, doc.Text, doc.Type)
	switch {
	case err != nil:
		s.logger.Warn("semantic collaborator unavailable, running pattern-only",
			zap.String("document_type", doc.Type),
			zap.Error(err))
		ec.Degraded = true
	case ann != nil:
		ec.Classification = ann.Classification
		for k, v := range ann.ContextHints {
			ec.Hints[k] = v
		}
	}

	return s.orch.Evaluate(ctx, doc, modules, ec)
}

// count records one request by operation.
func (s *Service) count(operation string) {
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(operation).Inc()
	}
}

// validateCommon checks the shared request fields.
func validateCommon(text string, modules []string) error {
	if text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if len(modules) == 0 {
		return fmt.Errorf("%w: at least one module is required", ErrInvalidRequest)
	}
	return nil
}

// normalizeTrailing trims trailing whitespace and ends the text with a
// single newline.
func normalizeTrailing(text string) string {
	trimmed := strings.TrimRight(text, " \t\n")
	if trimmed == "" {
		return trimmed
	}
	return trimmed + "\n"
}

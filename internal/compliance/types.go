package compliance

import (
	"github.com/fyrsmithlabs/complyd/internal/orchestrator"
	"github.com/fyrsmithlabs/complyd/internal/synthesis"
)

// ValidateRequest asks for gate evaluation only.
type ValidateRequest struct {
	// Text is the document text.
	Text string `json:"text"`

	// DocumentType is the caller-declared type.
	DocumentType string `json:"document_type"`

	// Modules names the gate modules to run.
	Modules []string `json:"modules"`

	// Context carries optional caller hints (jurisdiction, audience, ...).
	Context map[string]string `json:"context,omitempty"`

	// SeverityThreshold filters which gate results are surfaced; it never
	// changes which gates execute.
	SeverityThreshold string `json:"severity_threshold,omitempty"`
}

// ValidateResponse is the validation result surfaced to the caller.
type ValidateResponse struct {
	// RequestID identifies this response for audit correlation; it is
	// never part of the deterministic fingerprint.
	RequestID string `json:"request_id"`

	Validation *orchestrator.ValidationResult `json:"validation"`
}

// CorrectRequest asks for validation plus correction synthesis.
type CorrectRequest struct {
	Text         string            `json:"text"`
	DocumentType string            `json:"document_type"`
	Modules      []string          `json:"modules"`
	Context      map[string]string `json:"context,omitempty"`

	// AutoApply controls whether the corrected text is produced. When
	// false the planned corrections are returned but CorrectedText echoes
	// the original. Defaults to true on the HTTP surface.
	AutoApply bool `json:"auto_apply"`

	// PreserveFormatting keeps the document's trailing whitespace exactly
	// as produced by splicing. When false, trailing whitespace is
	// normalized to a single newline.
	PreserveFormatting bool `json:"preserve_formatting"`
}

// CorrectResponse is the audit artifact returned to the caller and
// exported to the audit store.
type CorrectResponse struct {
	// RequestID identifies this response; not part of the fingerprint.
	RequestID string `json:"request_id"`

	// Applied is false when AutoApply was off.
	Applied bool `json:"applied"`

	Validation *orchestrator.ValidationResult `json:"validation"`
	Result     *synthesis.Result              `json:"result"`
}

package gate

// Document is the immutable input to a validation request. Corrections
// never mutate a Document; they produce a new text value downstream.
type Document struct {
	// Text is the raw document text.
	Text string

	// Type is the caller-declared document type
	// (e.g., "financial-promotion", "privacy-notice").
	Type string

	// Context carries optional caller-supplied hints such as the target
	// jurisdiction. Keys are free-form.
	Context map[string]string
}

// NewDocument creates a Document with a defensive copy of the context map.
func NewDocument(text, docType string, context map[string]string) *Document {
	ctx := make(map[string]string, len(context))
	for k, v := range context {
		ctx[k] = v
	}
	return &Document{Text: text, Type: docType, Context: ctx}
}

// EvalContext is the merged evaluation context handed to every gate:
// caller-supplied hints plus whatever the semantic-analysis collaborator
// returned. When the collaborator is unavailable, Degraded is true and
// gates fall back to pattern-only behavior.
type EvalContext struct {
	// Classification is the collaborator's document classification, if any.
	Classification string

	// Hints are context hints merged from the caller and the collaborator.
	Hints map[string]string

	// Degraded indicates the semantic collaborator was unreachable or slow
	// and its annotation is missing.
	Degraded bool
}

// Hint returns the named hint, or empty string.
func (ec *EvalContext) Hint(key string) string {
	if ec == nil || ec.Hints == nil {
		return ""
	}
	return ec.Hints[key]
}

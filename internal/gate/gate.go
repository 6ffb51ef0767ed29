package gate

import "context"

// Gate is a single compliance check. Implementations must be stateless:
// Evaluate is a pure function of the document and evaluation context, safe
// to call concurrently and repeatedly with the same inputs.
type Gate interface {
	// ID returns the module-qualified gate identifier
	// (e.g., "financial-promotions/guaranteed-returns").
	ID() string

	// Module returns the owning module name.
	Module() string

	// Severity returns the gate's severity classification.
	Severity() Severity

	// Relevant reports whether this gate applies to the document at all.
	// It must be side-effect free and fast; a gate that is not relevant is
	// never evaluated and yields StatusNotApplicable.
	Relevant(doc *Document, ec *EvalContext) bool

	// Evaluate runs the check and returns zero or more violations.
	// Expected "no violation" outcomes are an empty slice, not an error;
	// errors are reserved for genuinely exceptional conditions.
	Evaluate(ctx context.Context, doc *Document, ec *EvalContext) ([]Violation, error)
}

// Package gate defines compliance gates: independently evaluable checks
// that inspect a document and report violations.
//
// A Gate is stateless and safe to invoke concurrently; it reads only the
// Document and evaluation context, which are immutable for the duration of
// a request. Gates are grouped into modules (one module per regulatory
// domain) and registered into a Registry at startup. Relevance predicates
// run before evaluation so a gate whose subject matter does not apply is
// skipped cheaply with StatusNotApplicable.
package gate

// Package compliance is the service facade front ends call: validate a
// document against the requested modules, or validate and then correct it.
//
// The service merges the semantic collaborator's annotation into the
// evaluation context (degrading to pattern-only mode when the collaborator
// fails), runs the gate orchestrator, and for corrections hands the
// aggregated result to the synthesizer against the catalogue snapshot the
// request started with.
package compliance

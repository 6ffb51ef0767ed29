package gate

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Relevance is a compiled relevance predicate. Config-defined gates express
// their relevance as a CEL expression over the document type, caller
// context, and the collaborator's classification, for example:
//
//	doc_type == "financial-promotion" || classification == "promotion"
//
// Compilation happens once at catalogue load; evaluation is cheap enough
// to run for every gate on every request.
type Relevance struct {
	Expression string
	program    cel.Program
}

// NewRelevance compiles a CEL relevance expression. The expression must
// evaluate to a boolean.
func NewRelevance(expression string) (*Relevance, error) {
	if expression == "" {
		return nil, fmt.Errorf("relevance expression can't be empty")
	}

	env, err := cel.NewEnv(
		cel.Variable("doc_type", cel.StringType),
		cel.Variable("classification", cel.StringType),
		cel.Variable("context", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error compiling relevance expression: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("relevance expression must be boolean, got %s", ast.OutputType())
	}
	p, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL program: %w", err)
	}

	return &Relevance{Expression: expression, program: p}, nil
}

// Eval evaluates the predicate against a document and evaluation context.
// Evaluation errors count as not relevant; relevance must never fail a
// request.
func (r *Relevance) Eval(doc *Document, ec *EvalContext) bool {
	context := map[string]string{}
	classification := ""
	if doc.Context != nil {
		for k, v := range doc.Context {
			context[k] = v
		}
	}
	if ec != nil {
		classification = ec.Classification
		for k, v := range ec.Hints {
			context[k] = v
		}
	}

	out, _, err := r.program.Eval(map[string]any{
		"doc_type":       doc.Type,
		"classification": classification,
		"context":        context,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// TypeRelevance is the common fast path: relevant when the document's
// declared type or detected classification matches one of the listed
// types. An empty list means always relevant.
type TypeRelevance struct {
	Types []string
}

// Matches reports whether the document's type or classification is listed.
func (t TypeRelevance) Matches(doc *Document, ec *EvalContext) bool {
	if len(t.Types) == 0 {
		return true
	}
	for _, want := range t.Types {
		if strings.EqualFold(doc.Type, want) {
			return true
		}
		if ec != nil && strings.EqualFold(ec.Classification, want) {
			return true
		}
	}
	return false
}

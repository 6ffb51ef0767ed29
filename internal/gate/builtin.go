package gate

import "regexp"

// Module names for the built-in gate set.
const (
	ModuleFinancialPromotions = "financial-promotions"
	ModuleDataProtection      = "data-protection"
)

// DefaultGates returns the built-in gate set. Organizations extend this
// with config-defined gates loaded from the pattern catalogue.
func DefaultGates() []Gate {
	specs := []PatternGateSpec{
		{
			ID:       "financial-promotions/guaranteed-returns",
			Module:   ModuleFinancialPromotions,
			Severity: SeverityCritical,
			DocTypes: []string{"financial-promotion", "marketing", "promotion"},
			Rules: []PatternRule{
				{
					Kind:     RuleForbid,
					Category: "guaranteed-returns",
					Pattern:  regexp.MustCompile(`(?i)guaranteed\s+\d+(?:\.\d+)?%\s+returns?`),
					Reason:   "promotions must not promise guaranteed investment returns",
				},
				{
					Kind:     RuleForbid,
					Category: "guaranteed-returns",
					Pattern:  regexp.MustCompile(`(?i)returns?\s+(?:are|is)\s+guaranteed`),
					Reason:   "promotions must not promise guaranteed investment returns",
				},
			},
		},
		{
			ID:       "financial-promotions/risk-free-claim",
			Module:   ModuleFinancialPromotions,
			Severity: SeverityHigh,
			DocTypes: []string{"financial-promotion", "marketing", "promotion"},
			Rules: []PatternRule{
				{
					Kind:     RuleForbid,
					Category: "risk-free-claim",
					Pattern:  regexp.MustCompile(`(?i)risk[- ]free`),
					Reason:   "investments must not be described as risk-free",
				},
				{
					Kind:     RuleForbid,
					Category: "risk-free-claim",
					Pattern:  regexp.MustCompile(`(?i)(?:no|zero|without(?:\s+any)?)\s+risk\b`),
					Reason:   "investments must not be described as carrying no risk",
				},
			},
		},
		{
			ID:       "financial-promotions/risk-warning-present",
			Module:   ModuleFinancialPromotions,
			Severity: SeverityHigh,
			DocTypes: []string{"financial-promotion", "marketing", "promotion"},
			Rules: []PatternRule{
				{
					Kind:     RuleRequire,
					Category: "missing-risk-warning",
					Pattern:  regexp.MustCompile(`(?i)capital\s+(?:is\s+)?at\s+risk|value\s+of\s+(?:your\s+)?investments?\s+(?:can|may)\s+(?:go\s+down|fall)`),
					Reason:   "promotion carries no risk warning",
				},
			},
		},
		{
			ID:       "financial-promotions/pressure-language",
			Module:   ModuleFinancialPromotions,
			Severity: SeverityMedium,
			DocTypes: []string{"financial-promotion", "marketing", "promotion"},
			Rules: []PatternRule{
				{
					Kind:     RuleForbid,
					Category: "pressure-language",
					Pattern:  regexp.MustCompile(`(?i)(?:act|invest|buy)\s+now\b|limited\s+time\s+only|don'?t\s+miss\s+out`),
					Reason:   "promotion uses pressure-selling language",
					Severity: SeverityMedium,
				},
			},
		},
		{
			ID:       "data-protection/lawful-basis-present",
			Module:   ModuleDataProtection,
			Severity: SeverityHigh,
			DocTypes: []string{"privacy-notice", "privacy-policy"},
			Rules: []PatternRule{
				{
					Kind:     RuleRequire,
					Category: "missing-lawful-basis",
					Pattern:  regexp.MustCompile(`(?i)lawful\s+basis|legitimate\s+interests?|legal\s+basis`),
					Reason:   "privacy notice does not state a lawful basis for processing",
				},
			},
		},
		{
			ID:       "data-protection/indefinite-retention",
			Module:   ModuleDataProtection,
			Severity: SeverityMedium,
			DocTypes: []string{"privacy-notice", "privacy-policy"},
			Rules: []PatternRule{
				{
					Kind:     RuleForbid,
					Category: "indefinite-retention",
					Pattern:  regexp.MustCompile(`(?i)(?:retain|keep|store)[^.;]{0,60}\b(?:indefinitely|forever|permanently)`),
					Reason:   "personal data must not be retained indefinitely",
				},
			},
		},
	}

	gates := make([]Gate, 0, len(specs))
	for _, spec := range specs {
		g, err := NewPatternGate(spec)
		if err != nil {
			// Built-in specs are compile-time constants; a bad one is a
			// programming error.
			panic(err)
		}
		gates = append(gates, g)
	}
	return gates
}

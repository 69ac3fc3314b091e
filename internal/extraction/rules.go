package extraction

import (
	"regexp"
	"strings"
)

// amountRule is one (pattern, capture) variant for a financial field. Rules
// for the same field are tried in order and the first match wins, so the
// precise, fully labeled patterns must come before the loose catch-alls.
// The catch-alls (e.g. "TOTAL.*DT" for total_ttc) can latch onto the wrong
// labeled number when several totals appear; that precedence is part of the
// documented behavior and must not be reordered.
type amountRule struct {
	re *regexp.Regexp
}

// apply returns the normalized first capture group, or "" when the rule does
// not match.
func (r amountRule) apply(text string) string {
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], ",", ".")
}

var (
	subtotalRules = []amountRule{
		{regexp.MustCompile(`(?i)SOUS-TOTAL HT\s*:?\s*([\d,]+\.?\d*)\s*DT`)},
		{regexp.MustCompile(`(?is)SOUS-TOTAL HT.*?([\d,]+\.?\d*)`)},
		{regexp.MustCompile(`(?is)SOUS-TOTAL.*?([\d,]+\.?\d*)\s*DT`)},
	}
	totalHTRules = []amountRule{
		{regexp.MustCompile(`(?i)TOTAL HT\s+([\d,]+\.?\d*)\s*DT`)},
		{regexp.MustCompile(`(?is)TOTAL HT.*?([\d,]+\.?\d*)`)},
	}
	totalVATRules = []amountRule{
		{regexp.MustCompile(`(?i)TOTAL TVA\s+([\d,]+\.?\d*)\s*DT`)},
		{regexp.MustCompile(`(?is)TVA.*?([\d,]+\.?\d*)\s*DT`)},
	}
	fiscalStampRules = []amountRule{
		{regexp.MustCompile(`(?i)Timbre fiscal\s+([\d,]+\.?\d*)\s*DT`)},
		{regexp.MustCompile(`(?is)Timbre.*?([\d,]+\.?\d*)\s*DT`)},
	}
	totalTTCRules = []amountRule{
		{regexp.MustCompile(`(?is)NET À PAYER.*?([\d,]+\.?\d*)\s*DT`)},
		{regexp.MustCompile(`(?i)NET À PAYER\s+([\d,]+\.?\d*)\s*DT`)},
		{regexp.MustCompile(`(?is)TOTAL.*?([\d,]+\.?\d*)\s*DT`)},
	}
)

// firstMatch runs an ordered rule list against the document text and
// returns the first capture, or nil when no variant matched.
func firstMatch(rules []amountRule, text string) *string {
	for _, r := range rules {
		if v := r.apply(text); v != "" {
			return strPtr(v)
		}
	}
	return nil
}

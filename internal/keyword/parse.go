package keyword

import (
	"strconv"
	"strings"
)

// Spec is one gradable concept: a set of synonym phrases, any of which
// satisfies the concept, plus a relative weight.
type Spec struct {
	Alternatives []string `json:"alternatives"`
	Weight       float64  `json:"weight"`
}

// ParseKeywordField parses a semicolon-separated keyword field where each
// item can be:
//
//	phrase                 weight 1
//	alt1|alt2              alternatives, weight 1
//	phrase:2               weight 2
//	alt1|alt2:1.5          alternatives with weight
//
// The weight is split off at the LAST colon, so phrases containing a colon
// keep it. Malformed weights fall back to 1 instead of rejecting the item;
// items with no usable phrase after normalization are dropped. Never errors.
func ParseKeywordField(field string) []Spec {
	specs := []Spec{}
	for _, raw := range strings.Split(field, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		phrasePart, weight := raw, 1.0
		if i := strings.LastIndex(raw, ":"); i >= 0 {
			phrasePart = raw[:i]
			if w, err := strconv.ParseFloat(strings.TrimSpace(raw[i+1:]), 64); err == nil {
				weight = w
			}
		}
		var alts []string
		for _, p := range strings.Split(phrasePart, "|") {
			if a := Normalize(strings.TrimSpace(p)); a != "" {
				alts = append(alts, a)
			}
		}
		if len(alts) == 0 {
			continue
		}
		specs = append(specs, Spec{Alternatives: alts, Weight: weight})
	}
	return specs
}

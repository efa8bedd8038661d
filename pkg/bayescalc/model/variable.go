package model

import "strings"

// Variable is a named discrete random variable with an ordered, finite domain
// of string-labeled values. Domain order is fixed at creation; every factor
// over this variable indexes assignments using that same order.
type Variable struct {
	Name   string
	Domain []string
}

// NewVariable creates a variable with the given domain. The domain slice is
// copied so later mutation by the caller cannot reorder it.
func NewVariable(name string, domain []string) *Variable {
	d := make([]string, len(domain))
	copy(d, domain)
	return &Variable{Name: name, Domain: d}
}

// trueLike/falseLike are the conventional labels for two-state variables.
// Lowercased for comparison.
var (
	trueLike  = map[string]bool{"true": true, "yes": true, "on": true, "t": true, "1": true}
	falseLike = map[string]bool{"false": true, "no": true, "off": true, "f": true, "0": true}
)

// IsBoolean reports whether the variable has a two-value domain whose labels
// conventionally represent true/false-like states (True/False, Yes/No, On/Off).
func (v *Variable) IsBoolean() bool {
	if len(v.Domain) != 2 {
		return false
	}
	a := strings.ToLower(v.Domain[0])
	b := strings.ToLower(v.Domain[1])
	return (trueLike[a] && falseLike[b]) || (falseLike[a] && trueLike[b])
}

// TrueValue returns the truthy domain label of a boolean variable, or the
// empty string for non-boolean variables.
func (v *Variable) TrueValue() string {
	if !v.IsBoolean() {
		return ""
	}
	if trueLike[strings.ToLower(v.Domain[0])] {
		return v.Domain[0]
	}
	return v.Domain[1]
}

// FalseValue returns the falsy domain label of a boolean variable, or the
// empty string for non-boolean variables.
func (v *Variable) FalseValue() string {
	if !v.IsBoolean() {
		return ""
	}
	if falseLike[strings.ToLower(v.Domain[0])] {
		return v.Domain[0]
	}
	return v.Domain[1]
}

// HasValue reports whether val is a member of the variable's domain.
func (v *Variable) HasValue(val string) bool {
	for _, d := range v.Domain {
		if d == val {
			return true
		}
	}
	return false
}

// FalseLikeValue reports whether a domain label reads as a negation when
// formatting assignments (P(~Rain) instead of P(Rain=False)).
func FalseLikeValue(val string) bool {
	switch strings.ToLower(val) {
	case "false", "no", "off":
		return true
	}
	return false
}

package model

import (
	"strings"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
)

// keySep joins assignment tuples into map keys. The definition language only
// admits identifier-shaped value labels, so a control character is safe.
const keySep = "\x1f"

// Key builds the probability-map key for an assignment tuple. Values must be
// given in the same order as the factor's Variables slice.
func Key(values ...string) string {
	return strings.Join(values, keySep)
}

// KeyValues splits a probability-map key back into its assignment tuple.
func KeyValues(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, keySep)
}

// Factor is a tabulated non-negative function over an ordered tuple of
// variable assignments. The order of Variables is significant: it defines how
// assignment tuples map to weights. Factors are treated as immutable once
// built; the algebra below always returns new factors.
type Factor struct {
	Variables     []*Variable
	Probabilities map[string]float64
}

// NewFactor creates an empty factor over the given variables.
func NewFactor(vars []*Variable) *Factor {
	vs := make([]*Variable, len(vars))
	copy(vs, vars)
	return &Factor{
		Variables:     vs,
		Probabilities: make(map[string]float64),
	}
}

// Identity returns the factor over no variables with unit weight. It is the
// neutral element of Multiply.
func Identity() *Factor {
	f := NewFactor(nil)
	f.Probabilities[Key()] = 1.0
	return f
}

// Set records the weight for an assignment tuple given in variable order.
func (f *Factor) Set(p float64, values ...string) {
	f.Probabilities[Key(values...)] = p
}

// Prob returns the weight for an assignment tuple given in variable order.
// Missing entries read as zero.
func (f *Factor) Prob(values ...string) float64 {
	return f.Probabilities[Key(values...)]
}

// ProbOf returns the weight for the assignment described by the name->value
// map. Callers that hold a factor with unknown variable ordering (every
// elimination result) use this instead of guessing tuple positions.
func (f *Factor) ProbOf(assignment map[string]string) float64 {
	values := make([]string, len(f.Variables))
	for i, v := range f.Variables {
		values[i] = assignment[v.Name]
	}
	return f.Prob(values...)
}

// Index returns the position of a variable in the factor, or -1.
func (f *Factor) Index(name string) int {
	for i, v := range f.Variables {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Sum returns the total weight across all assignment tuples.
func (f *Factor) Sum() float64 {
	var total float64
	for _, p := range f.Probabilities {
		total += p
	}
	return total
}

// Reduce restricts the factor to the given evidence. Evidenced variables are
// dropped from the result and only entries consistent with the observed
// values are kept. Evidence naming variables absent from the factor is
// ignored; if no evidenced variable appears in the factor at all, the factor
// is returned unchanged.
func (f *Factor) Reduce(evidence map[string]string) (*Factor, error) {
	fixed := make(map[int]string)
	for i, v := range f.Variables {
		val, ok := evidence[v.Name]
		if !ok {
			continue
		}
		if !v.HasValue(val) {
			return nil, &internalerr.DomainValueError{Variable: v.Name, Value: val}
		}
		fixed[i] = val
	}
	if len(fixed) == 0 {
		return f, nil
	}

	keep := make([]*Variable, 0, len(f.Variables)-len(fixed))
	for i, v := range f.Variables {
		if _, ok := fixed[i]; !ok {
			keep = append(keep, v)
		}
	}

	out := NewFactor(keep)
	for key, p := range f.Probabilities {
		values := KeyValues(key)
		consistent := true
		for i, want := range fixed {
			if values[i] != want {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		rest := make([]string, 0, len(keep))
		for i, val := range values {
			if _, ok := fixed[i]; !ok {
				rest = append(rest, val)
			}
		}
		out.Set(p, rest...)
	}
	return out, nil
}

// Multiply joins two factors into one over the union of their variable sets.
// The result's variable order is f's order followed by other's variables not
// already present. Each joint assignment's weight is the product of the two
// input weights for the matching sub-assignments.
func (f *Factor) Multiply(other *Factor) *Factor {
	union := make([]*Variable, 0, len(f.Variables)+len(other.Variables))
	union = append(union, f.Variables...)
	for _, v := range other.Variables {
		if f.Index(v.Name) < 0 {
			union = append(union, v)
		}
	}

	// Positions of each input factor's variables within the union tuple.
	leftIdx := make([]int, len(f.Variables))
	for i := range f.Variables {
		leftIdx[i] = i
	}
	rightIdx := make([]int, len(other.Variables))
	for i, v := range other.Variables {
		for j, u := range union {
			if u.Name == v.Name {
				rightIdx[i] = j
				break
			}
		}
	}

	out := NewFactor(union)
	left := make([]string, len(f.Variables))
	right := make([]string, len(other.Variables))
	for _, values := range Assignments(union) {
		for i, j := range leftIdx {
			left[i] = values[j]
		}
		for i, j := range rightIdx {
			right[i] = values[j]
		}
		out.Set(f.Prob(left...)*other.Prob(right...), values...)
	}
	return out
}

// SumOut marginalizes one variable out of the factor. If the variable does
// not appear, the factor is returned unchanged.
func (f *Factor) SumOut(name string) *Factor {
	at := f.Index(name)
	if at < 0 {
		return f
	}

	keep := make([]*Variable, 0, len(f.Variables)-1)
	for i, v := range f.Variables {
		if i != at {
			keep = append(keep, v)
		}
	}

	out := NewFactor(keep)
	for key, p := range f.Probabilities {
		values := KeyValues(key)
		rest := make([]string, 0, len(keep))
		for i, val := range values {
			if i != at {
				rest = append(rest, val)
			}
		}
		out.Probabilities[Key(rest...)] += p
	}
	return out
}

// Normalize scales the factor so its weights sum to one. Conditioning on an
// event with zero total weight is surfaced as ErrImpossibleEvidence rather
// than a division by zero.
func (f *Factor) Normalize() (*Factor, error) {
	total := f.Sum()
	if total <= 0 {
		return nil, internalerr.ErrImpossibleEvidence
	}
	out := NewFactor(f.Variables)
	for key, p := range f.Probabilities {
		out.Probabilities[key] = p / total
	}
	return out, nil
}

// Assignments enumerates the full cartesian product of the variables'
// domains, in domain order with the last variable varying fastest.
func Assignments(vars []*Variable) [][]string {
	if len(vars) == 0 {
		return [][]string{{}}
	}
	var out [][]string
	rest := Assignments(vars[1:])
	for _, val := range vars[0].Domain {
		for _, tail := range rest {
			row := make([]string, 0, len(vars))
			row = append(row, val)
			row = append(row, tail...)
			out = append(out, row)
		}
	}
	return out
}

// Package query parses textual probability queries against a network:
//
//	P(Rain)                      distribution over Rain
//	P(Rain=True)                 scalar
//	P(~Rain)                     scalar, boolean negation shorthand
//	P(GrassWet=Yes | Rain=True)  scalar conditioned on evidence
//	P(Rain, Sprinkler=On)        distribution over Rain, restricted to Sprinkler=On
//
// A result with no variables left is a scalar; callers check
// Factor.Variables to tell the two apart.
package query

import (
	"fmt"
	"strings"

	"github.com/cognicore/bayescalc/pkg/bayescalc/inference"
	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

// Parser evaluates P(...) query strings via an inference engine.
type Parser struct {
	net *model.Network
	eng inference.Engine
}

// NewParser creates a query parser bound to a network and engine.
func NewParser(net *model.Network, eng inference.Engine) *Parser {
	return &Parser{net: net, eng: eng}
}

// term is one parsed element of a query: a variable, optionally fixed to a
// value.
type term struct {
	variable string
	value    string
	assigned bool
}

// Evaluate parses and executes a probability query. Target variables with an
// assigned value are fixed in the result, so the returned factor ranges over
// the unassigned target variables only. The weights are joint probabilities
// conditioned on the evidence side; they are not renormalized over the
// remaining variables.
func (p *Parser) Evaluate(queryStr string) (*model.Factor, error) {
	inner, err := unwrap(queryStr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(inner, "|")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: more than one '|' in %q", internalerr.ErrMalformedQuery, queryStr)
	}

	targets, err := p.parseTerms(parts[0], false)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: empty query %q", internalerr.ErrMalformedQuery, queryStr)
	}

	evidence := make(map[string]string)
	if len(parts) == 2 {
		conds, err := p.parseTerms(parts[1], true)
		if err != nil {
			return nil, err
		}
		if len(conds) == 0 {
			return nil, fmt.Errorf("%w: empty condition in %q", internalerr.ErrMalformedQuery, queryStr)
		}
		for _, c := range conds {
			if _, dup := evidence[c.variable]; dup {
				return nil, fmt.Errorf("%w: variable %q conditioned twice", internalerr.ErrMalformedQuery, c.variable)
			}
			evidence[c.variable] = c.value
		}
	}

	queryVars := make([]string, 0, len(targets))
	fixed := make(map[string]string)
	seen := make(map[string]struct{})
	for _, t := range targets {
		if _, dup := seen[t.variable]; dup {
			return nil, fmt.Errorf("%w: variable %q queried twice", internalerr.ErrMalformedQuery, t.variable)
		}
		seen[t.variable] = struct{}{}
		queryVars = append(queryVars, t.variable)
		if t.assigned {
			fixed[t.variable] = t.value
		}
	}

	result, err := p.eng.Query(queryVars, evidence)
	if err != nil {
		return nil, err
	}
	if len(fixed) == 0 {
		return result, nil
	}
	return result.Reduce(fixed)
}

// Scalar evaluates a query that must reduce to a single number. A bare
// boolean variable is accepted as shorthand for its true state, matching the
// completion behavior of the front end.
func (p *Parser) Scalar(queryStr string) (float64, error) {
	result, err := p.Evaluate(queryStr)
	if err != nil {
		return 0, err
	}
	if len(result.Variables) == 0 {
		return result.Prob(), nil
	}
	if len(result.Variables) == 1 && result.Variables[0].IsBoolean() {
		reduced, err := result.Reduce(map[string]string{
			result.Variables[0].Name: result.Variables[0].TrueValue(),
		})
		if err != nil {
			return 0, err
		}
		return reduced.Prob(), nil
	}
	return 0, fmt.Errorf("%w: %q yields a distribution, not a single value",
		internalerr.ErrMalformedQuery, queryStr)
}

// unwrap strips the outer P( ... ) from a query string.
func unwrap(queryStr string) (string, error) {
	s := strings.TrimSpace(queryStr)
	if !strings.HasPrefix(s, "P(") || !strings.HasSuffix(s, ")") {
		return "", fmt.Errorf("%w: %q is not of the form P(...)", internalerr.ErrMalformedQuery, queryStr)
	}
	return s[2 : len(s)-1], nil
}

// parseTerms parses one comma-separated side of a query. On the evidence
// side every term must resolve to a concrete value, so a bare variable is
// only legal there when it is boolean (implying its true state).
func (p *Parser) parseTerms(s string, evidenceSide bool) ([]term, error) {
	var out []term
	for _, raw := range strings.Split(s, ",") {
		text := strings.TrimSpace(raw)
		if text == "" {
			if len(strings.TrimSpace(s)) == 0 && len(out) == 0 {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: empty term in %q", internalerr.ErrMalformedQuery, s)
		}

		if negated := strings.HasPrefix(text, "~"); negated {
			name := strings.TrimSpace(text[1:])
			v, err := p.net.Variable(name)
			if err != nil {
				return nil, err
			}
			if !v.IsBoolean() {
				return nil, fmt.Errorf("%w: '~' requires a boolean variable, %q is not",
					internalerr.ErrMalformedQuery, name)
			}
			out = append(out, term{variable: name, value: v.FalseValue(), assigned: true})
			continue
		}

		if eq := strings.Index(text, "="); eq >= 0 {
			name := strings.TrimSpace(text[:eq])
			value := strings.TrimSpace(text[eq+1:])
			if name == "" || value == "" {
				return nil, fmt.Errorf("%w: bad assignment %q", internalerr.ErrMalformedQuery, text)
			}
			v, err := p.net.Variable(name)
			if err != nil {
				return nil, err
			}
			if !v.HasValue(value) {
				return nil, &internalerr.DomainValueError{Variable: name, Value: value}
			}
			out = append(out, term{variable: name, value: value, assigned: true})
			continue
		}

		v, err := p.net.Variable(text)
		if err != nil {
			return nil, err
		}
		if evidenceSide {
			if !v.IsBoolean() {
				return nil, fmt.Errorf("%w: condition %q needs an explicit value",
					internalerr.ErrMalformedQuery, text)
			}
			out = append(out, term{variable: text, value: v.TrueValue(), assigned: true})
			continue
		}
		out = append(out, term{variable: text})
	}
	return out, nil
}

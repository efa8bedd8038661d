// Package exact implements inference by variable elimination. The algorithm
// multiplies and sums out the network's local CPT factors one hidden variable
// at a time; correctness does not depend on the elimination order, only the
// intermediate factor sizes do.
package exact

import (
	"fmt"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

// Engine runs variable elimination over a fixed network. The network is never
// mutated, so a single Engine is safe for concurrent queries.
type Engine struct {
	net *model.Network
}

// New creates an elimination engine over the given network.
func New(net *model.Network) *Engine {
	return &Engine{net: net}
}

// Query computes P(queryVars | evidence) as a normalized factor.
//
// Hidden variables are eliminated in network declaration order. That order is
// not width-optimal, but it is deterministic, which is what reproducibility
// requires. A query variable that also appears in evidence is treated as
// fixed and dropped from the output.
func (e *Engine) Query(queryVars []string, evidence map[string]string) (*model.Factor, error) {
	if len(queryVars) == 0 {
		return nil, fmt.Errorf("%w: empty query", internalerr.ErrMalformedQuery)
	}

	query := make(map[string]struct{}, len(queryVars))
	for _, name := range queryVars {
		if !e.net.HasVariable(name) {
			return nil, &internalerr.UnknownVariableError{Name: name}
		}
		if _, fixed := evidence[name]; fixed {
			continue
		}
		query[name] = struct{}{}
	}
	for name, val := range evidence {
		v, err := e.net.Variable(name)
		if err != nil {
			return nil, err
		}
		if !v.HasValue(val) {
			return nil, &internalerr.DomainValueError{Variable: name, Value: val}
		}
	}

	// Restrict every CPT to the evidence. Constant (variable-less) factors
	// are kept: a zero constant is how impossible evidence shows up.
	working := make([]*model.Factor, 0, len(e.net.VariableOrder()))
	for _, f := range e.net.Factors() {
		reduced, err := f.Reduce(evidence)
		if err != nil {
			return nil, err
		}
		working = append(working, reduced)
	}

	// Sum out every hidden variable in declaration order.
	for _, name := range e.net.VariableOrder() {
		if _, isQuery := query[name]; isQuery {
			continue
		}
		if _, isEvidence := evidence[name]; isEvidence {
			continue
		}
		working = eliminate(working, name)
	}

	result := model.Identity()
	for _, f := range working {
		result = result.Multiply(f)
	}
	return result.Normalize()
}

// eliminate multiplies every factor mentioning name into one product, sums
// name out of it, and returns the new working set.
func eliminate(working []*model.Factor, name string) []*model.Factor {
	var product *model.Factor
	rest := make([]*model.Factor, 0, len(working))
	for _, f := range working {
		if f.Index(name) < 0 {
			rest = append(rest, f)
			continue
		}
		if product == nil {
			product = f
		} else {
			product = product.Multiply(f)
		}
	}
	if product == nil {
		return rest
	}
	return append(rest, product.SumOut(name))
}

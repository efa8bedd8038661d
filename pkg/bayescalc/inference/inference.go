package inference

import "github.com/cognicore/bayescalc/pkg/bayescalc/model"

// Engine answers probability queries over a network.
// This interface allows swapping implementations (exact variable elimination,
// a future junction-tree or sampling engine) without touching callers.
type Engine interface {
	// Query computes the joint distribution over queryVars conditioned on
	// evidence. The returned factor is normalized; its variable order is
	// deterministic but not guaranteed to match queryVars, so callers must
	// consult Factor.Variables (or use Factor.ProbOf) for positions.
	//
	// Names absent from the network yield an ErrUnknownVariable, evidence
	// values outside a domain an ErrDomainValue, and evidence with zero
	// prior probability an ErrImpossibleEvidence.
	Query(queryVars []string, evidence map[string]string) (*model.Factor, error)
}

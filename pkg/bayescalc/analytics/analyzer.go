// Package analytics derives information-theoretic quantities and
// independence tests from inference results. Nothing here touches factor
// internals beyond probability lookups; every number comes out of one or
// more engine queries.
package analytics

import (
	"errors"
	"math"

	"github.com/cognicore/bayescalc/pkg/bayescalc/inference"
	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

const (
	// DefaultStratumEpsilon is the marginal mass below which a conditioning
	// stratum is skipped as negligible.
	DefaultStratumEpsilon = 1e-9

	// DefaultRelTol and DefaultAbsTol define the closeness test used by the
	// independence predicates: |a-b| <= abs + rel*|b|.
	DefaultRelTol = 1e-5
	DefaultAbsTol = 1e-8
)

// Options tunes the numeric tolerances. Zero values fall back to defaults.
type Options struct {
	StratumEpsilon float64
	RelTol         float64
	AbsTol         float64
}

// Analyzer computes entropies, mutual information and independence
// predicates over a network via an inference engine.
type Analyzer struct {
	net  *model.Network
	eng  inference.Engine
	opts Options
}

// New creates an analyzer with default tolerances.
func New(net *model.Network, eng inference.Engine) *Analyzer {
	return NewWithOptions(net, eng, Options{})
}

// NewWithOptions creates an analyzer with explicit tolerances.
func NewWithOptions(net *model.Network, eng inference.Engine, opts Options) *Analyzer {
	if opts.StratumEpsilon <= 0 {
		opts.StratumEpsilon = DefaultStratumEpsilon
	}
	if opts.RelTol <= 0 {
		opts.RelTol = DefaultRelTol
	}
	if opts.AbsTol <= 0 {
		opts.AbsTol = DefaultAbsTol
	}
	return &Analyzer{net: net, eng: eng, opts: opts}
}

// Entropy computes H(X) in bits.
func (a *Analyzer) Entropy(name string) (float64, error) {
	return a.JointEntropy(name)
}

// JointEntropy computes H(X1,...,Xn) in bits over the joint distribution of
// the given variables.
func (a *Analyzer) JointEntropy(names ...string) (float64, error) {
	dist, err := a.eng.Query(names, nil)
	if err != nil {
		return 0, err
	}
	var h float64
	for _, p := range dist.Probabilities {
		h += entropyTerm(p)
	}
	return h, nil
}

// entropyTerm returns -p*log2(p), with the p=0 case pinned to zero. A naive
// product evaluates to NaN at exactly zero.
func entropyTerm(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return -p * math.Log2(p)
}

// ConditionalEntropy computes H(X|Y) in bits. Strata with negligible P(y)
// are skipped.
func (a *Analyzer) ConditionalEntropy(x, y string) (float64, error) {
	varX, err := a.net.Variable(x)
	if err != nil {
		return 0, err
	}
	varY, err := a.net.Variable(y)
	if err != nil {
		return 0, err
	}
	if x == y {
		// A variable carries no uncertainty about itself.
		return 0, nil
	}

	joint, err := a.eng.Query([]string{x, y}, nil)
	if err != nil {
		return 0, err
	}
	marginalY, err := a.eng.Query([]string{y}, nil)
	if err != nil {
		return 0, err
	}

	var h float64
	assignment := make(map[string]string, 2)
	for _, valY := range varY.Domain {
		pY := marginalY.Prob(valY)
		if pY <= a.opts.StratumEpsilon {
			continue
		}
		assignment[y] = valY
		var inner float64
		for _, valX := range varX.Domain {
			assignment[x] = valX
			pXGivenY := joint.ProbOf(assignment) / pY
			if pXGivenY > a.opts.StratumEpsilon {
				inner -= pXGivenY * math.Log2(pXGivenY)
			}
		}
		h += pY * inner
	}
	return h, nil
}

// MutualInformation computes I(X;Y) = H(X) - H(X|Y) in bits.
func (a *Analyzer) MutualInformation(x, y string) (float64, error) {
	hX, err := a.Entropy(x)
	if err != nil {
		return 0, err
	}
	if x == y {
		return hX, nil
	}
	hXGivenY, err := a.ConditionalEntropy(x, y)
	if err != nil {
		return 0, err
	}
	return hX - hXGivenY, nil
}

// IsIndependent tests whether P(a,b) = P(a)*P(b) for every pair of domain
// values.
func (a *Analyzer) IsIndependent(first, second string) (bool, error) {
	varA, err := a.net.Variable(first)
	if err != nil {
		return false, err
	}
	varB, err := a.net.Variable(second)
	if err != nil {
		return false, err
	}
	return a.independentGiven(varA, varB, nil)
}

// IsCondIndependent tests whether first and second are independent in every
// stratum of the conditioning variables. Strata whose evidence is impossible
// under the model are vacuous and skipped.
func (a *Analyzer) IsCondIndependent(first, second string, given []string) (bool, error) {
	varA, err := a.net.Variable(first)
	if err != nil {
		return false, err
	}
	varB, err := a.net.Variable(second)
	if err != nil {
		return false, err
	}
	condVars := make([]*model.Variable, len(given))
	for i, name := range given {
		v, err := a.net.Variable(name)
		if err != nil {
			return false, err
		}
		condVars[i] = v
	}

	for _, values := range model.Assignments(condVars) {
		evidence := make(map[string]string, len(condVars))
		for i, v := range condVars {
			evidence[v.Name] = values[i]
		}
		ok, err := a.independentGiven(varA, varB, evidence)
		if err != nil {
			if errors.Is(err, internalerr.ErrImpossibleEvidence) {
				continue
			}
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (a *Analyzer) independentGiven(varA, varB *model.Variable, evidence map[string]string) (bool, error) {
	pA, err := a.eng.Query([]string{varA.Name}, evidence)
	if err != nil {
		return false, err
	}
	pB, err := a.eng.Query([]string{varB.Name}, evidence)
	if err != nil {
		return false, err
	}
	pAB, err := a.eng.Query([]string{varA.Name, varB.Name}, evidence)
	if err != nil {
		return false, err
	}

	assignment := make(map[string]string, 2)
	for _, valA := range varA.Domain {
		for _, valB := range varB.Domain {
			assignment[varA.Name] = valA
			assignment[varB.Name] = valB
			joint := pAB.ProbOf(assignment)
			product := pA.Prob(valA) * pB.Prob(valB)
			if !a.close(joint, product) {
				return false, nil
			}
		}
	}
	return true, nil
}

// close applies the |a-b| <= abs + rel*|b| comparison.
func (a *Analyzer) close(got, want float64) bool {
	return math.Abs(got-want) <= a.opts.AbsTol+a.opts.RelTol*math.Abs(want)
}

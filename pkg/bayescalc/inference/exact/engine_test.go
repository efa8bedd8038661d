package exact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
	"github.com/cognicore/bayescalc/pkg/bayescalc/netdef"
)

const rainNet = `
variable Rain {True, False}
variable Sprinkler {On, Off}
variable GrassWet {Yes, No}

Rain { P(True) = 0.2 }
Sprinkler | Rain {
    P(On | True) = 0.01
    P(On | False) = 0.4
}
GrassWet | Rain, Sprinkler {
    P(Yes | True, On) = 0.99
    P(Yes | True, Off) = 0.8
    P(Yes | False, On) = 0.9
    P(Yes | False, Off) = 0.1
}
`

func rainEngine(t *testing.T) (*Engine, *model.Network) {
	t.Helper()
	net, err := netdef.Parse(rainNet)
	require.NoError(t, err)
	return New(net), net
}

func TestMarginalOfRoot(t *testing.T) {
	eng, _ := rainEngine(t)

	dist, err := eng.Query([]string{"Rain"}, nil)
	require.NoError(t, err)
	require.Len(t, dist.Variables, 1)
	assert.InDelta(t, 0.2, dist.ProbOf(map[string]string{"Rain": "True"}), 1e-9)
	assert.InDelta(t, 0.8, dist.ProbOf(map[string]string{"Rain": "False"}), 1e-9)
}

func TestMarginalSumsOverParents(t *testing.T) {
	eng, _ := rainEngine(t)

	dist, err := eng.Query([]string{"Sprinkler"}, nil)
	require.NoError(t, err)
	// P(On) = 0.2*0.01 + 0.8*0.4
	assert.InDelta(t, 0.322, dist.ProbOf(map[string]string{"Sprinkler": "On"}), 1e-9)
}

func TestEveryResultSumsToOne(t *testing.T) {
	eng, net := rainEngine(t)
	for _, name := range net.VariableOrder() {
		dist, err := eng.Query([]string{name}, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, dist.Sum(), 1e-6)
	}

	joint, err := eng.Query(net.VariableOrder(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, joint.Sum(), 1e-6)
}

func TestMarginalConsistency(t *testing.T) {
	eng, net := rainEngine(t)
	order := net.VariableOrder()

	for _, x := range order {
		for _, y := range order {
			if x == y {
				continue
			}
			joint, err := eng.Query([]string{x, y}, nil)
			require.NoError(t, err)
			single, err := eng.Query([]string{x}, nil)
			require.NoError(t, err)

			collapsed := joint.SumOut(y)
			xVar, err := net.Variable(x)
			require.NoError(t, err)
			for _, val := range xVar.Domain {
				want := single.ProbOf(map[string]string{x: val})
				got := collapsed.ProbOf(map[string]string{x: val})
				assert.InDelta(t, want, got, 1e-9, "P(%s=%s) via joint with %s", x, val, y)
			}
		}
	}
}

func TestConditionalQuery(t *testing.T) {
	eng, _ := rainEngine(t)

	dist, err := eng.Query([]string{"Sprinkler"}, map[string]string{"Rain": "True"})
	require.NoError(t, err)
	assert.InDelta(t, 0.01, dist.ProbOf(map[string]string{"Sprinkler": "On"}), 1e-9)
	assert.InDelta(t, 0.99, dist.ProbOf(map[string]string{"Sprinkler": "Off"}), 1e-9)
}

func TestPosteriorAgainstHandComputation(t *testing.T) {
	eng, _ := rainEngine(t)

	// P(GrassWet=Yes) = 0.2*(0.01*0.99+0.99*0.8) + 0.8*(0.4*0.9+0.6*0.1)
	//                 = 0.16038 + 0.336 = 0.49638
	dist, err := eng.Query([]string{"Rain"}, map[string]string{"GrassWet": "Yes"})
	require.NoError(t, err)
	assert.InDelta(t, 0.16038/0.49638, dist.ProbOf(map[string]string{"Rain": "True"}), 1e-9)
}

func TestQueryEvidenceOverlapTreatsVariableAsFixed(t *testing.T) {
	eng, _ := rainEngine(t)

	dist, err := eng.Query([]string{"Rain", "Sprinkler"}, map[string]string{"Rain": "True"})
	require.NoError(t, err)
	require.Len(t, dist.Variables, 1)
	assert.Equal(t, "Sprinkler", dist.Variables[0].Name)
	assert.InDelta(t, 0.01, dist.ProbOf(map[string]string{"Sprinkler": "On"}), 1e-9)

	// Fully overlapping query collapses to the trivial distribution.
	scalar, err := eng.Query([]string{"Rain"}, map[string]string{"Rain": "True"})
	require.NoError(t, err)
	assert.Empty(t, scalar.Variables)
	assert.InDelta(t, 1.0, scalar.Sum(), 1e-9)
}

func TestQueryValidation(t *testing.T) {
	eng, _ := rainEngine(t)

	_, err := eng.Query(nil, nil)
	assert.ErrorIs(t, err, internalerr.ErrMalformedQuery)

	_, err = eng.Query([]string{"Snow"}, nil)
	assert.ErrorIs(t, err, internalerr.ErrUnknownVariable)

	_, err = eng.Query([]string{"Rain"}, map[string]string{"Snow": "True"})
	assert.ErrorIs(t, err, internalerr.ErrUnknownVariable)

	_, err = eng.Query([]string{"Rain"}, map[string]string{"Sprinkler": "Maybe"})
	assert.ErrorIs(t, err, internalerr.ErrDomainValue)
}

func TestImpossibleEvidence(t *testing.T) {
	net, err := netdef.Parse(`
variable Alarm {True, False}
variable Call {True, False}
Alarm { P(True) = 1.0 }
Call | Alarm {
    P(True | True) = 0.9
    P(True | False) = 0.1
}
`)
	require.NoError(t, err)
	eng := New(net)

	_, err = eng.Query([]string{"Call"}, map[string]string{"Alarm": "False"})
	assert.ErrorIs(t, err, internalerr.ErrImpossibleEvidence)
}

func TestDeterministicChainPropagates(t *testing.T) {
	net, err := netdef.Parse(`
variable A {True, False}
variable B {True, False}
A { P(True) = 0.5 }
B | A {
    P(True | True) = 1.0
    P(True | False) = 0.0
}
`)
	require.NoError(t, err)
	eng := New(net)

	dist, err := eng.Query([]string{"A"}, map[string]string{"B": "True"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dist.ProbOf(map[string]string{"A": "True"}), 1e-9)
	assert.InDelta(t, 0.0, dist.ProbOf(map[string]string{"A": "False"}), 1e-9)
}

func TestRepeatedQueriesAreConsistent(t *testing.T) {
	eng, _ := rainEngine(t)

	first, err := eng.Query([]string{"GrassWet"}, map[string]string{"Rain": "False"})
	require.NoError(t, err)
	second, err := eng.Query([]string{"GrassWet"}, map[string]string{"Rain": "False"})
	require.NoError(t, err)

	for key, p := range first.Probabilities {
		assert.InDelta(t, p, second.Probabilities[key], 1e-12)
	}
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/bayescalc/pkg/bayescalc/inference/exact"
	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
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

func rainParser(t *testing.T) *Parser {
	t.Helper()
	net, err := netdef.Parse(rainNet)
	require.NoError(t, err)
	return NewParser(net, exact.New(net))
}

func TestScalarQueries(t *testing.T) {
	p := rainParser(t)

	tests := []struct {
		query string
		want  float64
	}{
		{"P(Rain=True)", 0.2},
		{"P(~Rain)", 0.8},
		{"P(Sprinkler=On | Rain=True)", 0.01},
		{"P(Sprinkler=On | ~Rain)", 0.4},
		{"P(Rain=True, Sprinkler=On)", 0.2 * 0.01},
		{"P(GrassWet=Yes | Rain=True, Sprinkler=Off)", 0.8},
		// Bare boolean evidence implies its true state.
		{"P(Sprinkler=On | Rain)", 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			result, err := p.Evaluate(tt.query)
			require.NoError(t, err)
			require.Empty(t, result.Variables, "expected a scalar result")
			assert.InDelta(t, tt.want, result.Prob(), 1e-9)
		})
	}
}

func TestDistributionQuery(t *testing.T) {
	p := rainParser(t)

	result, err := p.Evaluate("P(Rain)")
	require.NoError(t, err)
	require.Len(t, result.Variables, 1)
	assert.InDelta(t, 0.2, result.Prob("True"), 1e-9)
	assert.InDelta(t, 0.8, result.Prob("False"), 1e-9)
	assert.InDelta(t, 1.0, result.Sum(), 1e-6)
}

func TestMixedMarginalQuery(t *testing.T) {
	p := rainParser(t)

	// Joint restricted to Sprinkler=On, still a distribution over Rain.
	result, err := p.Evaluate("P(Rain, Sprinkler=On)")
	require.NoError(t, err)
	require.Len(t, result.Variables, 1)
	assert.Equal(t, "Rain", result.Variables[0].Name)
	assert.InDelta(t, 0.2*0.01, result.Prob("True"), 1e-9)
	assert.InDelta(t, 0.8*0.4, result.Prob("False"), 1e-9)
}

func TestScalarShorthandForBareBoolean(t *testing.T) {
	p := rainParser(t)

	v, err := p.Scalar("P(Rain)")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v, 1e-9)

	v, err = p.Scalar("P(Sprinkler)")
	require.NoError(t, err)
	assert.InDelta(t, 0.322, v, 1e-9)
}

func TestScalarRejectsDistributions(t *testing.T) {
	net, err := netdef.Parse(`
variable Weather {Sunny, Cloudy, Rainy}
Weather {
    P(Sunny) = 0.5
    P(Cloudy) = 0.3
}
`)
	require.NoError(t, err)
	p := NewParser(net, exact.New(net))

	_, err = p.Scalar("P(Weather)")
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrMalformedQuery)
}

func TestMalformedQueries(t *testing.T) {
	p := rainParser(t)

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"not a query", "Rain=True", internalerr.ErrMalformedQuery},
		{"two pipes", "P(Rain | Sprinkler | GrassWet)", internalerr.ErrMalformedQuery},
		{"empty target", "P( | Rain=True)", internalerr.ErrMalformedQuery},
		{"empty condition", "P(Rain |)", internalerr.ErrMalformedQuery},
		{"empty term", "P(Rain,, Sprinkler)", internalerr.ErrMalformedQuery},
		{"dangling assignment", "P(Rain=)", internalerr.ErrMalformedQuery},
		{"duplicate target", "P(Rain, Rain)", internalerr.ErrMalformedQuery},
		{"duplicate condition", "P(GrassWet | Rain=True, Rain=False)", internalerr.ErrMalformedQuery},
		{"unknown variable", "P(Snow)", internalerr.ErrUnknownVariable},
		{"value outside domain", "P(Rain=Heavy)", internalerr.ErrDomainValue},
		{"negating non-boolean evidence value", "P(~GrassWet=Yes)", internalerr.ErrUnknownVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Evaluate(tt.query)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvidenceSideNeedsValues(t *testing.T) {
	net, err := netdef.Parse(`
variable Weather {Sunny, Cloudy, Rainy}
variable Mood {Good, Bad}
Weather {
    P(Sunny) = 0.5
    P(Cloudy) = 0.3
}
Mood | Weather {
    P(Good | Sunny) = 0.9
    P(Good | Cloudy) = 0.6
    P(Good | Rainy) = 0.3
}
`)
	require.NoError(t, err)
	p := NewParser(net, exact.New(net))

	_, err = p.Evaluate("P(Mood | Weather)")
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrMalformedQuery)
}

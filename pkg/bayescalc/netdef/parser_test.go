package netdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
)

const rainNet = `
# classic sprinkler example
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

func TestParseRainNetwork(t *testing.T) {
	net, err := Parse(rainNet)
	require.NoError(t, err)

	assert.Equal(t, []string{"Rain", "Sprinkler", "GrassWet"}, net.VariableOrder())

	rain, err := net.Variable("Rain")
	require.NoError(t, err)
	assert.Equal(t, []string{"True", "False"}, rain.Domain)
	assert.True(t, rain.IsBoolean())

	parents, err := net.Parents("GrassWet")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rain", "Sprinkler"}, parents)

	children, err := net.Children("Rain")
	require.NoError(t, err)
	assert.Equal(t, []string{"GrassWet", "Sprinkler"}, children)
}

func TestParseFillsComplementRows(t *testing.T) {
	net, err := Parse(rainNet)
	require.NoError(t, err)

	prior, ok := net.CPT("Rain")
	require.True(t, ok)
	assert.InDelta(t, 0.2, prior.Prob("True"), 1e-12)
	assert.InDelta(t, 0.8, prior.Prob("False"), 1e-12)

	cpt, ok := net.CPT("Sprinkler")
	require.True(t, ok)
	assert.InDelta(t, 0.99, cpt.Prob("Off", "True"), 1e-12)
	assert.InDelta(t, 0.6, cpt.Prob("Off", "False"), 1e-12)

	grass, ok := net.CPT("GrassWet")
	require.True(t, ok)
	assert.InDelta(t, 0.01, grass.Prob("No", "True", "On"), 1e-12)
	assert.InDelta(t, 0.9, grass.Prob("No", "False", "Off"), 1e-12)
}

func TestParseFullySpecifiedMultivalued(t *testing.T) {
	net, err := Parse(`
variable Weather {Sunny, Cloudy, Rainy}
Weather {
    P(Sunny) = 0.5
    P(Cloudy) = 0.3
    P(Rainy) = 0.2
}
`)
	require.NoError(t, err)
	cpt, ok := net.CPT("Weather")
	require.True(t, ok)
	assert.InDelta(t, 0.3, cpt.Prob("Cloudy"), 1e-12)
}

func TestParseComplementForMultivalued(t *testing.T) {
	net, err := Parse(`
variable Weather {Sunny, Cloudy, Rainy}
Weather {
    P(Sunny) = 0.5
    P(Cloudy) = 0.3
}
`)
	require.NoError(t, err)
	cpt, _ := net.CPT("Weather")
	assert.InDelta(t, 0.2, cpt.Prob("Rainy"), 1e-12)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{
			name:  "undeclared variable in CPT",
			input: `Rain { P(True) = 0.2 }`,
			want:  internalerr.ErrUnknownVariable,
		},
		{
			name: "value outside domain",
			input: `
variable Rain {True, False}
Rain { P(Sometimes) = 0.2 }`,
			want: internalerr.ErrDomainValue,
		},
		{
			name: "distribution sums above one",
			input: `
variable Rain {True, False}
Rain {
    P(True) = 0.8
    P(False) = 0.8
}`,
		},
		{
			name: "underspecified distribution",
			input: `
variable Weather {Sunny, Cloudy, Rainy}
Weather { P(Sunny) = 0.5 }`,
		},
		{
			name: "missing CPT",
			input: `
variable Rain {True, False}
variable Sprinkler {On, Off}
Rain { P(True) = 0.2 }`,
		},
		{
			name: "duplicate variable",
			input: `
variable Rain {True, False}
variable Rain {True, False}
Rain { P(True) = 0.2 }`,
		},
		{
			name: "wrong parent value count",
			input: `
variable Rain {True, False}
variable Sprinkler {On, Off}
Rain { P(True) = 0.2 }
Sprinkler | Rain { P(On) = 0.4 }`,
		},
		{
			name: "probability above one",
			input: `
variable Rain {True, False}
Rain { P(True) = 1.5 }`,
		},
		{
			name: "duplicate row",
			input: `
variable Rain {True, False}
Rain {
    P(True) = 0.2
    P(True) = 0.3
}`,
		},
		{
			name: "stray character",
			input: `
variable Rain {True, False}
Rain { P(True) = 0.2 } $`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			want := tt.want
			if want == nil {
				want = internalerr.ErrInvalidNetwork
			}
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestParseDetectsCycle(t *testing.T) {
	_, err := Parse(`
variable A {True, False}
variable B {True, False}
A | B {
    P(True | True) = 0.5
    P(True | False) = 0.5
}
B | A {
    P(True | True) = 0.5
    P(True | False) = 0.5
}
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrInvalidNetwork)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rain.net")
	require.NoError(t, os.WriteFile(path, []byte(rainNet), 0o644))

	net, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, net.VariableOrder(), 3)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.net"))
	assert.Error(t, err)
}

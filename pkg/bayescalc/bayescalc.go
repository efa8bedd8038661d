// Package bayescalc is the calculator facade: it wires a network to the
// inference engine, the derived analytics, the query/expression parsers and
// the command handler, and routes interactive input to the right one.
package bayescalc

import (
	"fmt"
	"strings"

	"github.com/cognicore/bayescalc/pkg/bayescalc/analytics"
	"github.com/cognicore/bayescalc/pkg/bayescalc/commands"
	"github.com/cognicore/bayescalc/pkg/bayescalc/config"
	"github.com/cognicore/bayescalc/pkg/bayescalc/expr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/inference"
	"github.com/cognicore/bayescalc/pkg/bayescalc/inference/exact"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
	"github.com/cognicore/bayescalc/pkg/bayescalc/netdef"
	"github.com/cognicore/bayescalc/pkg/bayescalc/query"
)

// Calculator answers probability queries and commands over one network.
type Calculator struct {
	net      *model.Network
	eng      inference.Engine
	analyzer *analytics.Analyzer
	queries  *query.Parser
	exprs    *expr.Evaluator
	commands *commands.Handler
	places   int
}

// Options configures a Calculator instance.
type Options struct {
	Network *model.Network
	// Engine defaults to exact variable elimination over Network.
	Engine inference.Engine
	Config config.Config
}

// New creates a Calculator with the given dependencies.
func New(opts Options) *Calculator {
	cfg := opts.Config
	if cfg.Places <= 0 {
		cfg.Places = config.Default().Places
	}
	eng := opts.Engine
	if eng == nil {
		eng = exact.New(opts.Network)
	}
	analyzer := analytics.NewWithOptions(opts.Network, eng, analytics.Options{
		StratumEpsilon: cfg.Analytics.StratumEpsilon,
		RelTol:         cfg.Analytics.RelTol,
		AbsTol:         cfg.Analytics.AbsTol,
	})
	queries := query.NewParser(opts.Network, eng)
	return &Calculator{
		net:      opts.Network,
		eng:      eng,
		analyzer: analyzer,
		queries:  queries,
		exprs:    expr.New(queries),
		commands: commands.New(opts.Network, eng, analyzer, cfg.Places),
		places:   cfg.Places,
	}
}

// Load parses a network definition file and builds a calculator over it.
func Load(path string, cfg config.Config) (*Calculator, error) {
	net, err := netdef.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return New(Options{Network: net, Config: cfg}), nil
}

// LoadString parses a network definition string and builds a calculator.
func LoadString(definition string, cfg config.Config) (*Calculator, error) {
	net, err := netdef.Parse(definition)
	if err != nil {
		return nil, err
	}
	return New(Options{Network: net, Config: cfg}), nil
}

// Network exposes the underlying network.
func (c *Calculator) Network() *model.Network { return c.net }

// Engine exposes the inference engine.
func (c *Calculator) Engine() inference.Engine { return c.eng }

// Analytics exposes the derived analytics layer.
func (c *Calculator) Analytics() *analytics.Analyzer { return c.analyzer }

// Queries exposes the probability query parser.
func (c *Calculator) Queries() *query.Parser { return c.queries }

// Execute evaluates one line of interactive input and returns its printable
// result. A lone P(...) query prints a scalar or a distribution, arithmetic
// expressions print a scalar, everything else dispatches to the command
// table.
func (c *Calculator) Execute(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}

	if isSingleQuery(line) {
		result, err := c.queries.Evaluate(line)
		if err != nil {
			return "", err
		}
		return c.formatResult(result), nil
	}

	if expr.CanEvaluate(line) {
		val, err := c.exprs.Evaluate(line)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("  = %.*f", c.places, val), nil
	}

	return c.commands.Execute(line)
}

// isSingleQuery reports whether the line is exactly one P(...) query with no
// surrounding arithmetic.
func isSingleQuery(line string) bool {
	if !strings.HasPrefix(line, "P(") || !strings.HasSuffix(line, ")") {
		return false
	}
	inner := line[2 : len(line)-1]
	return !strings.ContainsAny(inner, "()+-*/")
}

// formatResult prints a query result: distributions one line per assignment,
// scalars as a single value.
func (c *Calculator) formatResult(f *model.Factor) string {
	if len(f.Variables) == 0 {
		return fmt.Sprintf("  = %.*f", c.places, f.Prob())
	}
	var lines []string
	for _, values := range model.Assignments(f.Variables) {
		lines = append(lines, fmt.Sprintf("  P(%s) = %.*f",
			strings.Join(values, ", "), c.places, f.Prob(values...)))
	}
	return strings.Join(lines, "\n")
}

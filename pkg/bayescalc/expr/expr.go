// Package expr evaluates arithmetic expressions over probability queries,
// e.g. "P(Rain=True | GrassWet=Yes) / P(Rain=True)" or "log10(P(~Rain)) * 2".
// Each embedded P(...) query is resolved to a scalar through the query
// parser, substituted as a variable, and the surrounding arithmetic is
// handed to the expr-lang runtime.
package expr

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/query"
)

// probQueryPattern matches embedded probability queries. Queries do not nest
// parentheses, so a single non-greedy group suffices.
var probQueryPattern = regexp.MustCompile(`P\([^)]+\)`)

// Evaluator evaluates arithmetic expressions containing probability queries.
type Evaluator struct {
	queries *query.Parser
}

// New creates an evaluator on top of a query parser.
func New(queries *query.Parser) *Evaluator {
	return &Evaluator{queries: queries}
}

// mathFuncs are the functions available inside expressions, mirroring the
// front end's documented surface.
func mathFuncs() map[string]interface{} {
	return map[string]interface{}{
		"sqrt":  math.Sqrt,
		"log":   math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
		"exp":   math.Exp,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"abs":   math.Abs,
		"pow":   math.Pow,
	}
}

// CanEvaluate reports whether a line looks like an arithmetic/probability
// expression rather than a calculator command.
func CanEvaluate(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	if probQueryPattern.MatchString(s) {
		return true
	}
	// Pure math: nothing but numbers, operators and known function names.
	rest := s
	for name := range mathFuncs() {
		rest = strings.ReplaceAll(rest, name, "")
	}
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
		case strings.ContainsRune("+-*/(). ,eE", r):
		default:
			return false
		}
	}
	return true
}

// Evaluate computes the scalar value of an expression. Every embedded P(...)
// must resolve to a single number; a query yielding a distribution is
// rejected as malformed.
func (e *Evaluator) Evaluate(exprStr string) (float64, error) {
	s := strings.TrimSpace(exprStr)
	matches := probQueryPattern.FindAllString(s, -1)

	env := mathFuncs()
	rewritten := s
	for i, q := range matches {
		val, err := e.queries.Scalar(q)
		if err != nil {
			return 0, fmt.Errorf("evaluating %q: %w", q, err)
		}
		name := fmt.Sprintf("prob%d", i)
		rewritten = strings.Replace(rewritten, q, name, 1)
		env[name] = val
	}

	program, err := expr.Compile(rewritten, expr.Env(env), expr.AsFloat64())
	if err != nil {
		return 0, fmt.Errorf("%w: %s", internalerr.ErrMalformedQuery, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", internalerr.ErrMalformedQuery, err)
	}
	val, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: expression %q is not numeric", internalerr.ErrMalformedQuery, exprStr)
	}
	return val, nil
}

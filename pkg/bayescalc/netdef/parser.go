// Package netdef parses the textual network definition language:
//
//	variable Rain {True, False}
//	variable Sprinkler {On, Off}
//
//	Rain { P(True) = 0.2 }
//	Sprinkler | Rain {
//	    P(On | True) = 0.01
//	    P(On | False) = 0.4
//	}
//
// For each parent assignment one domain value may be left out; its
// probability is filled in as the complement. Fully specified rows must sum
// to one.
package netdef

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

// rowSumTolerance bounds how far a fully specified distribution may drift
// from summing to one before the definition is rejected.
const rowSumTolerance = 1e-6

// Parse builds a validated network from a definition string.
func Parse(input string) (*model.Network, error) {
	tokens, err := newLexer(input).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, net: model.NewNetwork()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	if err := p.net.Validate(); err != nil {
		return nil, err
	}
	return p.net, nil
}

// ParseFile builds a validated network from a definition file.
func ParseFile(path string) (*model.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network definition: %w", err)
	}
	return Parse(string(data))
}

type parser struct {
	tokens []token
	pos    int
	net    *model.Network
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.advance()
	if tok.kind != kind {
		return token{}, fmt.Errorf("%w: line %d: expected %s, got %q",
			internalerr.ErrInvalidNetwork, tok.line, kind, tok.text)
	}
	return tok, nil
}

// value accepts identifiers and bare numbers; domains like {1, 0} are legal.
func (p *parser) value() (token, error) {
	tok := p.advance()
	if tok.kind != tokenIdent && tok.kind != tokenNumber {
		return token{}, fmt.Errorf("%w: line %d: expected a value, got %q",
			internalerr.ErrInvalidNetwork, tok.line, tok.text)
	}
	return tok, nil
}

func (p *parser) parse() error {
	for p.peek().kind != tokenEOF {
		tok, err := p.expect(tokenIdent)
		if err != nil {
			return err
		}
		if tok.text == "variable" {
			if err := p.variableDecl(); err != nil {
				return err
			}
			continue
		}
		if err := p.cptBlock(tok); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) variableDecl() error {
	name, err := p.expect(tokenIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(tokenLBrace); err != nil {
		return err
	}
	var domain []string
	for {
		val, err := p.value()
		if err != nil {
			return err
		}
		domain = append(domain, val.text)
		tok := p.advance()
		if tok.kind == tokenRBrace {
			break
		}
		if tok.kind != tokenComma {
			return fmt.Errorf("%w: line %d: expected ',' or '}' in domain of %q",
				internalerr.ErrInvalidNetwork, tok.line, name.text)
		}
	}
	return p.net.AddVariable(model.NewVariable(name.text, domain))
}

// cptRow is one P(child | parents...) = value line.
type cptRow struct {
	childValue   string
	parentValues []string
	prob         float64
	line         int
}

func (p *parser) cptBlock(name token) error {
	child, err := p.net.Variable(name.text)
	if err != nil {
		return fmt.Errorf("line %d: %w", name.line, err)
	}

	var parents []*model.Variable
	if p.peek().kind == tokenPipe {
		p.advance()
		for {
			tok, err := p.expect(tokenIdent)
			if err != nil {
				return err
			}
			parent, err := p.net.Variable(tok.text)
			if err != nil {
				return fmt.Errorf("line %d: %w", tok.line, err)
			}
			parents = append(parents, parent)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(tokenLBrace); err != nil {
		return err
	}
	var rows []cptRow
	for p.peek().kind != tokenRBrace {
		row, err := p.probRow(child, parents)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	p.advance() // consume '}'

	factor, err := buildCPT(child, parents, rows)
	if err != nil {
		return err
	}
	return p.net.SetCPT(child.Name, factor)
}

func (p *parser) probRow(child *model.Variable, parents []*model.Variable) (cptRow, error) {
	head, err := p.expect(tokenIdent)
	if err != nil {
		return cptRow{}, err
	}
	if head.text != "P" {
		return cptRow{}, fmt.Errorf("%w: line %d: expected 'P', got %q",
			internalerr.ErrInvalidNetwork, head.line, head.text)
	}
	if _, err := p.expect(tokenLParen); err != nil {
		return cptRow{}, err
	}

	childVal, err := p.value()
	if err != nil {
		return cptRow{}, err
	}
	if !child.HasValue(childVal.text) {
		return cptRow{}, fmt.Errorf("line %d: %w", childVal.line,
			&internalerr.DomainValueError{Variable: child.Name, Value: childVal.text})
	}

	var parentValues []string
	if p.peek().kind == tokenPipe {
		p.advance()
		for {
			val, err := p.value()
			if err != nil {
				return cptRow{}, err
			}
			parentValues = append(parentValues, val.text)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
	}
	if len(parentValues) != len(parents) {
		return cptRow{}, fmt.Errorf("%w: line %d: P(...) for %q names %d parent values, want %d",
			internalerr.ErrInvalidNetwork, head.line, child.Name, len(parentValues), len(parents))
	}
	for i, val := range parentValues {
		if !parents[i].HasValue(val) {
			return cptRow{}, fmt.Errorf("line %d: %w", head.line,
				&internalerr.DomainValueError{Variable: parents[i].Name, Value: val})
		}
	}

	if _, err := p.expect(tokenRParen); err != nil {
		return cptRow{}, err
	}
	if _, err := p.expect(tokenEquals); err != nil {
		return cptRow{}, err
	}
	num, err := p.expect(tokenNumber)
	if err != nil {
		return cptRow{}, err
	}
	prob, err := strconv.ParseFloat(num.text, 64)
	if err != nil || prob < 0 || prob > 1 {
		return cptRow{}, fmt.Errorf("%w: line %d: %q is not a probability",
			internalerr.ErrInvalidNetwork, num.line, num.text)
	}

	return cptRow{
		childValue:   childVal.text,
		parentValues: parentValues,
		prob:         prob,
		line:         head.line,
	}, nil
}

// buildCPT assembles the factor over [child, parents...], filling in at most
// one complement value per parent assignment and checking that each
// conditional distribution sums to one.
func buildCPT(child *model.Variable, parents []*model.Variable, rows []cptRow) (*model.Factor, error) {
	vars := append([]*model.Variable{child}, parents...)
	factor := model.NewFactor(vars)

	specified := make(map[string]map[string]float64) // parent key -> child value -> prob
	for _, row := range rows {
		pk := model.Key(row.parentValues...)
		if specified[pk] == nil {
			specified[pk] = make(map[string]float64)
		}
		if _, dup := specified[pk][row.childValue]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate entry for P(%s | ...)",
				internalerr.ErrInvalidNetwork, row.line, row.childValue)
		}
		specified[pk][row.childValue] = row.prob
	}

	for _, parentValues := range model.Assignments(parents) {
		pk := model.Key(parentValues...)
		given := specified[pk]

		var sum float64
		var missing []string
		for _, val := range child.Domain {
			p, ok := given[val]
			if !ok {
				missing = append(missing, val)
				continue
			}
			sum += p
		}

		switch len(missing) {
		case 0:
			if math.Abs(sum-1) > rowSumTolerance {
				return nil, fmt.Errorf("%w: distribution of %q given %v sums to %g",
					internalerr.ErrInvalidNetwork, child.Name, parentValues, sum)
			}
		case 1:
			rest := 1 - sum
			if rest < -rowSumTolerance {
				return nil, fmt.Errorf("%w: distribution of %q given %v exceeds one",
					internalerr.ErrInvalidNetwork, child.Name, parentValues)
			}
			if rest < 0 {
				rest = 0
			}
			given[missing[0]] = rest
		default:
			return nil, fmt.Errorf("%w: distribution of %q given %v leaves %d values unspecified",
				internalerr.ErrInvalidNetwork, child.Name, parentValues, len(missing))
		}

		for _, val := range child.Domain {
			tuple := append([]string{val}, parentValues...)
			factor.Set(given[val], tuple...)
		}
	}
	return factor, nil
}

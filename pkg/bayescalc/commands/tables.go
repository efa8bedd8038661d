package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

// alignTable renders a header row, separator and data rows with columns
// padded to the widest cell.
func alignTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, name := range header {
		widths[i] = len(name)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	pad := func(row []string) string {
		parts := make([]string, len(row))
		for i, cell := range row {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.Join(parts, " | ")
	}

	sep := make([]string, len(header))
	for i := range header {
		sep[i] = strings.Repeat("-", widths[i])
	}

	lines := []string{pad(header), strings.Join(sep, "-+-")}
	for _, row := range rows {
		lines = append(lines, pad(row))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) printCPT(name string) (string, error) {
	factor, ok := h.net.CPT(name)
	if !ok {
		if !h.net.HasVariable(name) {
			return "", &internalerr.UnknownVariableError{Name: name}
		}
		return fmt.Sprintf("No CPT found for variable '%s'.", name), nil
	}
	variable := factor.Variables[0]
	parents := factor.Variables[1:]

	if len(parents) == 0 {
		rows := make([][]string, 0, len(variable.Domain))
		for _, val := range variable.Domain {
			rows = append(rows, []string{val, fmt.Sprintf("%.4f", factor.Prob(val))})
		}
		return alignTable([]string{variable.Name, "P"}, rows), nil
	}

	parentNames := make([]string, len(parents))
	for i, p := range parents {
		parentNames[i] = fmt.Sprintf("%-10s", p.Name)
	}

	var rows [][]string
	for _, val := range variable.Domain {
		for _, parentValues := range model.Assignments(parents) {
			tuple := append([]string{val}, parentValues...)
			cells := make([]string, len(parentValues))
			for i, pv := range parentValues {
				if i < len(parentValues)-1 {
					cells[i] = fmt.Sprintf("%-10s", pv+",")
				} else {
					cells[i] = pv
				}
			}
			rows = append(rows, []string{
				val,
				strings.Join(cells, " "),
				fmt.Sprintf("%.4f", factor.Prob(tuple...)),
			})
		}
	}
	header := []string{variable.Name, strings.Join(parentNames, " "), "P"}
	return alignTable(header, rows), nil
}

func (h *Handler) printJPT() (string, error) {
	order := h.net.VariableOrder()
	jpt, err := h.eng.Query(order, nil)
	if err != nil {
		return "", err
	}

	vars := h.net.Variables()
	header := make([]string, 0, len(vars)+1)
	for _, v := range vars {
		header = append(header, v.Name)
	}
	header = append(header, "P")

	assignment := make(map[string]string, len(vars))
	var rows [][]string
	for _, values := range model.Assignments(vars) {
		for i, v := range vars {
			assignment[v.Name] = values[i]
		}
		row := append([]string{}, values...)
		row = append(row, h.formatFloat(jpt.ProbOf(assignment)))
		rows = append(rows, row)
	}
	return alignTable(header, rows), nil
}

// assignmentLabel renders variable assignments the way the calculator prints
// them: false/no/off values show as a negation (~X), everything else as the
// bare variable name.
func assignmentLabel(names, values []string) string {
	parts := make([]string, len(names))
	for i := range names {
		if model.FalseLikeValue(values[i]) {
			parts[i] = "~" + names[i]
		} else {
			parts[i] = names[i]
		}
	}
	return strings.Join(parts, ", ")
}

func (h *Handler) marginals(nStr string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(nStr))
	if err != nil {
		return "", fmt.Errorf("%w: invalid argument %q: n must be an integer", internalerr.ErrMalformedQuery, nStr)
	}
	if n <= 0 {
		return "", fmt.Errorf("%w: n must be positive, got %d", internalerr.ErrMalformedQuery, n)
	}
	order := h.net.VariableOrder()
	if n > len(order) {
		return "", fmt.Errorf("%w: n=%d exceeds number of variables (%d) in the network",
			internalerr.ErrMalformedQuery, n, len(order))
	}

	type entry struct {
		label string
		value string
	}
	var results []entry
	width := 0

	for _, combo := range combinations(order, n) {
		marginal, err := h.eng.Query(combo, nil)
		if err != nil {
			return "", err
		}
		comboVars := make([]*model.Variable, len(combo))
		for i, name := range combo {
			comboVars[i], _ = h.net.Variable(name)
		}
		assignment := make(map[string]string, len(combo))
		for _, values := range model.Assignments(comboVars) {
			for i, name := range combo {
				assignment[name] = values[i]
			}
			label := fmt.Sprintf("P(%s)", assignmentLabel(combo, values))
			results = append(results, entry{
				label: label,
				value: h.formatFloat(marginal.ProbOf(assignment)),
			})
			if len(label) > width {
				width = len(label)
			}
		}
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%-*s = %s", width, r.label, r.value))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) condProbs(nStr, mStr string) (string, error) {
	n, errN := strconv.Atoi(strings.TrimSpace(nStr))
	m, errM := strconv.Atoi(strings.TrimSpace(mStr))
	if errN != nil || errM != nil {
		return "", fmt.Errorf("%w: invalid arguments: n=%s and m=%s must be integers",
			internalerr.ErrMalformedQuery, nStr, mStr)
	}
	if n <= 0 || m <= 0 {
		return "", fmt.Errorf("%w: n and m must be positive, got n=%d, m=%d", internalerr.ErrMalformedQuery, n, m)
	}
	order := h.net.VariableOrder()
	if n+m > len(order) {
		return "", fmt.Errorf("%w: n+m=%d exceeds number of variables (%d) in the network",
			internalerr.ErrMalformedQuery, n+m, len(order))
	}

	var lines []string
	width := 0

	for _, targetCombo := range combinations(order, n) {
		targetVars := make([]*model.Variable, len(targetCombo))
		for i, name := range targetCombo {
			targetVars[i], _ = h.net.Variable(name)
		}
		for _, evidCombo := range combinations(order, m) {
			if overlaps(targetCombo, evidCombo) {
				continue
			}
			evidVars := make([]*model.Variable, len(evidCombo))
			for i, name := range evidCombo {
				evidVars[i], _ = h.net.Variable(name)
			}

			for _, evidValues := range model.Assignments(evidVars) {
				evidence := make(map[string]string, len(evidCombo))
				for i, name := range evidCombo {
					evidence[name] = evidValues[i]
				}

				dist, err := h.eng.Query(targetCombo, evidence)
				if err != nil {
					// Zero-probability evidence rules out this stratum only.
					if errors.Is(err, internalerr.ErrImpossibleEvidence) {
						continue
					}
					return "", err
				}

				assignment := make(map[string]string, len(targetCombo))
				for _, targetValues := range model.Assignments(targetVars) {
					for i, name := range targetCombo {
						assignment[name] = targetValues[i]
					}
					label := fmt.Sprintf("P(%s | %s)",
						assignmentLabel(targetCombo, targetValues),
						assignmentLabel(evidCombo, evidValues))
					lines = append(lines, fmt.Sprintf("%s\x00%s", label, h.formatFloat(dist.ProbOf(assignment))))
					if len(label) > width {
						width = len(label)
					}
				}
			}
		}
	}

	if len(lines) == 0 {
		return "No valid conditional probabilities found (may be due to disjoint variable sets or zero evidence probabilities).", nil
	}

	sort.Strings(lines)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		parts := strings.SplitN(l, "\x00", 2)
		out = append(out, fmt.Sprintf("%-*s = %s", width, parts[0], parts[1]))
	}
	return strings.Join(out, "\n"), nil
}

// combinations returns all k-element subsets of items, preserving order.
func combinations(items []string, k int) [][]string {
	if k == 0 {
		return [][]string{{}}
	}
	if k > len(items) {
		return nil
	}
	var out [][]string
	for i := 0; i+k <= len(items); i++ {
		for _, tail := range combinations(items[i+1:], k-1) {
			combo := make([]string, 0, k)
			combo = append(combo, items[i])
			combo = append(combo, tail...)
			out = append(out, combo)
		}
	}
	return out
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Package commands implements the calculator's utility commands: CPT/JPT
// printing, graph queries, independence tests and the information-theoretic
// measures. Dispatch goes through a static command table rather than a
// reflective registry; each entry names its handler and argument shape.
package commands

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/bayescalc/pkg/bayescalc/analytics"
	"github.com/cognicore/bayescalc/pkg/bayescalc/inference"
	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

// Handler executes calculator commands against one network.
type Handler struct {
	net    *model.Network
	eng    inference.Engine
	an     *analytics.Analyzer
	places int
}

// New creates a command handler. places controls how many decimals
// probability and entropy values are printed with; zero means six.
func New(net *model.Network, eng inference.Engine, an *analytics.Analyzer, places int) *Handler {
	if places <= 0 {
		places = 6
	}
	return &Handler{net: net, eng: eng, an: an, places: places}
}

// command describes one table entry. Exactly one of run/runRaw is set:
// runRaw handlers do their own argument parsing (the '|' forms and help's
// optional argument).
type command struct {
	name    string
	aliases []string
	help    string
	argc    int
	run     func(h *Handler, args []string) (string, error)
	runRaw  func(h *Handler, raw string) (string, error)
}

var table []command

// Populated in init to break the initialization cycle between the table
// literal and the help handler, which iterates the table.
func init() {
	table = []command{
		{
			name: "printCPT", argc: 1,
			help: "printCPT(variable_name) - Print the Conditional Probability Table for a variable",
			run:  func(h *Handler, args []string) (string, error) { return h.printCPT(args[0]) },
		},
		{
			name: "printJPT", argc: 0,
			help: "printJPT() - Print the complete Joint Probability Table",
			run:  func(h *Handler, _ []string) (string, error) { return h.printJPT() },
		},
		{
			name: "parents", argc: 1,
			help: "parents(variable_name) - Get the parent variables of a given variable",
			run:  func(h *Handler, args []string) (string, error) { return h.parents(args[0]) },
		},
		{
			name: "children", argc: 1,
			help: "children(variable_name) - Get the child variables of a given variable",
			run:  func(h *Handler, args []string) (string, error) { return h.children(args[0]) },
		},
		{
			name: "showGraph", argc: 0,
			help: "showGraph() - Display an ASCII representation of the network graph",
			run:  func(h *Handler, _ []string) (string, error) { return h.showGraph(), nil },
		},
		{
			name: "ls", aliases: []string{"vars"}, argc: 0,
			help: "ls() or vars() - List all variables and their domains",
			run:  func(h *Handler, _ []string) (string, error) { return h.listVariables(), nil },
		},
		{
			name: "isindependent", argc: 2,
			help: "isindependent(var1, var2) - Check if two variables are independent",
			run:  func(h *Handler, args []string) (string, error) { return h.isIndependent(args[0], args[1]) },
		},
		{
			name: "iscondindependent", argc: -1,
			help:   "iscondindependent(var1, var2 | cond_vars...) - Check conditional independence",
			runRaw: func(h *Handler, raw string) (string, error) { return h.isCondIndependent(raw) },
		},
		{
			name: "entropy", argc: 1,
			help: "entropy(variable_name) - Calculate the entropy of a variable",
			run:  func(h *Handler, args []string) (string, error) { return h.entropy(args[0]) },
		},
		{
			name: "conditional_entropy", argc: -1,
			help:   "conditional_entropy(X | Y) - Calculate conditional entropy H(X|Y)",
			runRaw: func(h *Handler, raw string) (string, error) { return h.conditionalEntropy(raw) },
		},
		{
			name: "mutual_information", argc: 2,
			help: "mutual_information(var1, var2) - Calculate mutual information between two variables",
			run: func(h *Handler, args []string) (string, error) {
				return h.mutualInformation(args[0], args[1])
			},
		},
		{
			name: "marginals", argc: 1,
			help: "marginals(n) - List marginal probabilities for all n-variable combinations",
			run:  func(h *Handler, args []string) (string, error) { return h.marginals(args[0]) },
		},
		{
			name: "condprobs", argc: 2,
			help: "condprobs(n, m) - List all conditional probabilities P(A|B) for n-by-m variable combinations",
			run:  func(h *Handler, args []string) (string, error) { return h.condProbs(args[0], args[1]) },
		},
		{
			name: "help", aliases: []string{"?"}, argc: -1,
			help:   "help() or help(command) - Show help for all commands or a specific command",
			runRaw: func(h *Handler, raw string) (string, error) { return h.help(raw), nil },
		},
	}
}

// lookup resolves a command name or alias.
func lookup(name string) (*command, bool) {
	for i := range table {
		if table[i].name == name {
			return &table[i], true
		}
		for _, alias := range table[i].aliases {
			if alias == name {
				return &table[i], true
			}
		}
	}
	return nil, false
}

// Names lists every command name and alias, for completion.
func Names() []string {
	var out []string
	for _, cmd := range table {
		out = append(out, cmd.name)
		out = append(out, cmd.aliases...)
	}
	sort.Strings(out)
	return out
}

var commandPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Execute parses and runs one command line.
func (h *Handler) Execute(line string) (string, error) {
	line = strings.TrimSpace(line)

	// Bare shortcuts like "ls" or "help" without parentheses.
	if cmd, ok := lookup(line); ok {
		if cmd.argc == 0 {
			return cmd.run(h, nil)
		}
		if cmd.runRaw != nil {
			return cmd.runRaw(h, "")
		}
		return "", fmt.Errorf("%w: %q requires arguments. Use: %s", internalerr.ErrMalformedQuery, line, cmd.help)
	}

	m := commandPattern.FindStringSubmatch(line)
	if m == nil {
		return "", fmt.Errorf("%w: %q. Use 'help()' to see available commands", internalerr.ErrMalformedQuery, line)
	}
	cmd, ok := lookup(m[1])
	if !ok {
		return "", fmt.Errorf("%w: %q. Use 'help()' to see available commands", internalerr.ErrUnknownCommand, m[1])
	}
	argsStr := m[2]

	if cmd.runRaw != nil {
		return cmd.runRaw(h, argsStr)
	}
	if cmd.argc == 0 {
		if strings.TrimSpace(argsStr) != "" {
			return "", fmt.Errorf("%w: %q does not take arguments. Use: %s", internalerr.ErrMalformedQuery, cmd.name, cmd.help)
		}
		return cmd.run(h, nil)
	}

	var args []string
	if strings.TrimSpace(argsStr) != "" {
		for _, a := range strings.Split(argsStr, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	if len(args) != cmd.argc {
		return "", fmt.Errorf("%w: %q requires %d argument(s). Use: %s",
			internalerr.ErrMalformedQuery, cmd.name, cmd.argc, cmd.help)
	}
	return cmd.run(h, args)
}

func (h *Handler) help(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		lines := []string{"Available commands:", strings.Repeat("=", 50)}
		names := make([]string, 0, len(table))
		for _, cmd := range table {
			names = append(names, cmd.name)
		}
		sort.Strings(names)
		for _, n := range names {
			cmd, _ := lookup(n)
			lines = append(lines, "  "+cmd.help)
			if len(cmd.aliases) > 0 {
				lines = append(lines, "    Aliases: "+strings.Join(cmd.aliases, ", "))
			}
		}
		return strings.Join(lines, "\n")
	}

	cmd, ok := lookup(name)
	if !ok {
		return fmt.Sprintf("Unknown command: %s", name)
	}
	text := cmd.help
	if len(cmd.aliases) > 0 {
		text += "\nAliases: " + strings.Join(cmd.aliases, ", ")
	}
	return text
}

func (h *Handler) parents(name string) (string, error) {
	parents, err := h.net.Parents(name)
	if err != nil {
		return "", err
	}
	return formatSet(parents), nil
}

func (h *Handler) children(name string) (string, error) {
	children, err := h.net.Children(name)
	if err != nil {
		return "", err
	}
	return formatSet(children), nil
}

func formatSet(names []string) string {
	return "{" + strings.Join(names, ", ") + "}"
}

func (h *Handler) showGraph() string {
	lines := []string{"Bayesian Network Graph:"}
	adj := h.net.Adjacency()
	connected := false
	for _, name := range h.net.VariableOrder() {
		children := adj[name]
		if len(children) == 0 {
			continue
		}
		connected = true
		lines = append(lines, fmt.Sprintf("  %s -> {%s}", name, strings.Join(children, ", ")))
	}
	if !connected {
		lines = append(lines, "  (No connections in the graph)")
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) listVariables() string {
	vars := h.net.Variables()
	if len(vars) == 0 {
		return "No variables defined in the network."
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })

	rows := make([][]string, 0, len(vars))
	for _, v := range vars {
		kind := "Multival"
		if v.IsBoolean() {
			kind = "Boolean"
		}
		rows = append(rows, []string{v.Name, kind, strings.Join(v.Domain, ", ")})
	}
	return alignTable([]string{"Variable", "Type", "States"}, rows)
}

func (h *Handler) isIndependent(a, b string) (string, error) {
	ok, err := h.an.IsIndependent(a, b)
	if err != nil {
		return "", err
	}
	return formatBool(ok), nil
}

func (h *Handler) isCondIndependent(raw string) (string, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: iscondindependent format: A, B | C, D", internalerr.ErrMalformedQuery)
	}
	vars := splitArgs(parts[0])
	cond := splitArgs(parts[1])
	if len(vars) != 2 {
		return "", fmt.Errorf("%w: iscondindependent requires two variables to check", internalerr.ErrMalformedQuery)
	}
	if len(cond) == 0 {
		return "", fmt.Errorf("%w: iscondindependent requires conditioning variables", internalerr.ErrMalformedQuery)
	}
	ok, err := h.an.IsCondIndependent(vars[0], vars[1], cond)
	if err != nil {
		return "", err
	}
	return formatBool(ok), nil
}

func (h *Handler) entropy(name string) (string, error) {
	v, err := h.an.Entropy(name)
	if err != nil {
		return "", err
	}
	return h.formatFloat(v), nil
}

func (h *Handler) conditionalEntropy(raw string) (string, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 || len(splitArgs(parts[0])) != 1 || len(splitArgs(parts[1])) != 1 {
		return "", fmt.Errorf("%w: conditional_entropy format: X | Y", internalerr.ErrMalformedQuery)
	}
	v, err := h.an.ConditionalEntropy(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	if err != nil {
		return "", err
	}
	return h.formatFloat(v), nil
}

func (h *Handler) mutualInformation(a, b string) (string, error) {
	v, err := h.an.MutualInformation(a, b)
	if err != nil {
		return "", err
	}
	return h.formatFloat(v), nil
}

func (h *Handler) formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', h.places, 64)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func splitArgs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

package main

import (
	"regexp"
	"strings"

	"github.com/cognicore/bayescalc/pkg/bayescalc/model"
)

// completer implements readline.AutoCompleter for the calculator: command
// names at the start of a line, variable names inside P(...) and command
// parentheses, domain values after '='.
type completer struct {
	net *model.Network
}

func newCompleter(net *model.Network) *completer {
	return &completer{net: net}
}

// commandCompletions are the top-level candidates, parenthesized the way
// each command is typed.
var commandCompletions = []string{
	"P(", "printCPT(", "printJPT()", "parents(", "children(", "showGraph(",
	"isindependent(", "iscondindependent(", "entropy(", "conditional_entropy(",
	"mutual_information(", "marginals(", "condprobs(", "help", "exit", "ls", "vars",
}

// variableArgCommands take variable names as arguments.
var variableArgCommands = map[string]bool{
	"printCPT":            true,
	"parents":             true,
	"children":            true,
	"entropy":             true,
	"isindependent":       true,
	"iscondindependent":   true,
	"mutual_information":  true,
	"conditional_entropy": true,
}

var (
	valuePattern   = regexp.MustCompile(`(\w+)\s*=\s*(\w*)$`)
	commandPattern = regexp.MustCompile(`^(\w+)\((.*)$`)
)

// Do returns the completion suffixes for the word before the cursor, per the
// readline.AutoCompleter contract.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	if idx := strings.LastIndex(text, "P("); idx >= 0 {
		return c.completeQuery(text[idx+2:])
	}

	if m := commandPattern.FindStringSubmatch(text); m != nil {
		if variableArgCommands[m[1]] {
			return c.completeVariableArg(m[2])
		}
		return nil, 0
	}

	word := lastWord(text)
	return candidates(word, commandCompletions)
}

// completeQuery completes inside a P( ... ) query: domain values after '=',
// variable names otherwise.
func (c *completer) completeQuery(inside string) ([][]rune, int) {
	if m := valuePattern.FindStringSubmatch(inside); m != nil {
		v, err := c.net.Variable(m[1])
		if err != nil {
			return nil, 0
		}
		return candidates(m[2], v.Domain)
	}

	token := lastQueryToken(inside)
	token = strings.TrimPrefix(token, "~")

	var options []string
	for _, v := range c.net.Variables() {
		name := v.Name
		// Non-boolean variables always need an explicit value.
		if !v.IsBoolean() {
			name += "="
		}
		options = append(options, name)
	}
	return candidates(token, options)
}

// completeVariableArg completes the current argument of a command that takes
// variable names.
func (c *completer) completeVariableArg(args string) ([][]rune, int) {
	current := args
	if i := strings.LastIndexAny(current, ",|"); i >= 0 {
		current = current[i+1:]
	}
	current = strings.TrimSpace(current)

	var names []string
	for _, v := range c.net.Variables() {
		names = append(names, v.Name)
	}
	return candidates(current, names)
}

// lastQueryToken is the fragment after the last separator inside a query.
func lastQueryToken(inside string) string {
	last := inside
	if i := strings.LastIndexAny(last, ",|()"); i >= 0 {
		last = last[i+1:]
	}
	return strings.TrimSpace(last)
}

func lastWord(text string) string {
	if i := strings.LastIndexAny(text, " \t"); i >= 0 {
		return text[i+1:]
	}
	return text
}

// candidates filters options by prefix and returns the remaining suffixes.
func candidates(prefix string, options []string) ([][]rune, int) {
	var out [][]rune
	for _, opt := range options {
		if strings.HasPrefix(opt, prefix) && opt != prefix {
			out = append(out, []rune(opt[len(prefix):]))
		}
	}
	return out, len(prefix)
}

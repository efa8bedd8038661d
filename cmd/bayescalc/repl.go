package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cognicore/bayescalc/pkg/bayescalc"
	"github.com/cognicore/bayescalc/pkg/bayescalc/config"
)

// runREPL drives the interactive session: line editing with history and
// completion, one Execute call per line.
func runREPL(calc *bayescalc.Calculator, cfg config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       cfg.Prompt,
		HistoryFile:  cfg.HistoryFile,
		AutoComplete: newCompleter(calc.Network()),
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Bayesian Network Calculator")
	fmt.Println("Type 'help' for a list of commands, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Println("Exiting.")
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			fmt.Println("Exiting.")
			return nil
		}

		out, err := calc.Execute(line)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

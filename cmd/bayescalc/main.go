package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cognicore/bayescalc/pkg/bayescalc"
	"github.com/cognicore/bayescalc/pkg/bayescalc/config"
)

var log = logrus.New()

func main() {
	var (
		configPath  string
		historyPath string
		evalLine    string
	)

	rootCmd := &cobra.Command{
		Use:   "bayescalc <network-file>",
		Short: "Interactive calculator for discrete Bayesian networks",
		Long: `bayescalc loads a textual network definition and answers probability
queries, independence tests and information-theoretic measures over it.

Without --eval it starts an interactive session with history and completion.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if historyPath != "" {
				cfg.HistoryFile = historyPath
			}

			calc, err := bayescalc.Load(args[0], cfg)
			if err != nil {
				return fmt.Errorf("load network %s: %w", args[0], err)
			}
			log.WithField("network", args[0]).
				WithField("variables", len(calc.Network().VariableOrder())).
				Debug("network loaded")

			if evalLine != "" {
				out, err := calc.Execute(evalLine)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}
			return runREPL(calc, cfg)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&historyPath, "history", "", "override the history file location")
	rootCmd.Flags().StringVar(&evalLine, "eval", "", "evaluate one command or expression and exit")

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("bayescalc failed")
		os.Exit(1)
	}
}

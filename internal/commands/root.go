// Package commands implements the treatment-calendar command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/app"
)

// globals are the persistent flags and the logger built from them.
type globals struct {
	verbose    bool
	configPath string
	logger     *zap.Logger
}

// NewRootCmd creates the top-level "treatment-calendar" command.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "treatment-calendar",
		Short:         "Treatment program calendar service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := app.NewLogger(g.verbose)
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to YAML config file")

	root.AddCommand(
		newServeCmd(g),
		newHashPasswordCmd(g),
		newValidateCmd(),
		newMonthCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

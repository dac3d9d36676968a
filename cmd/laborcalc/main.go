/*
main.go - Application entry point

PURPOSE:
  Command-line front end for the labor hour calculator.

COMMANDS:
  serve       Run the web dashboard and JSON API
  calc        Print proposals for one configuration
  check-env   Validate the server configuration and list every problem

GLOBAL FLAGS:
  --env-file     .env file loaded before the process environment (default .env)
  --log-level    debug | info | warn | error (calc and check-env)

ENVIRONMENT:
  See config/config.go. serve reads its log level and format from
  LOG_LEVEL and LOG_FORMAT instead of the flags.

SEE ALSO:
  - serve.go: Server startup and graceful shutdown
  - calc.go: One-shot calculation
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/labor-calculator/logging"
)

var (
	envFile  string
	logLevel string

	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "laborcalc",
		Short: "Labor hour calculator",
		Long: `laborcalc compares the cost of keeping weekly labor hours constant when
the contracted hours per worker go down: hire more workers, pay overtime,
or a mix of both.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(logLevel, "console")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before the environment")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for calc and check-env")

	root.AddCommand(newServeCmd(), newCalcCmd(), newCheckEnvCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

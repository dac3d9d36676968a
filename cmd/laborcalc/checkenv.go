package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/labor-calculator/config"
)

func newCheckEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-env",
		Short: "Validate the server configuration",
		Long: `Loads the configuration exactly as serve would and reports every
invalid or missing setting. Exits non-zero when anything is wrong.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				printViolations(cmd, err)
				return err
			}
			logger.Debug("configuration loaded")
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok (env=%s addr=%s api=%s)\n", cfg.Env, cfg.Addr, cfg.APIURL)
			return nil
		},
	}
}

func printViolations(cmd *cobra.Command, err error) {
	violations := config.Violations(err)
	fmt.Fprintf(cmd.ErrOrStderr(), "configuration has %d problem(s):\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", v)
	}
}

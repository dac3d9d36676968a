package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/warp/labor-calculator/coverage"
	"github.com/warp/labor-calculator/report"
)

type calcOptions struct {
	cfg    coverage.Configuration
	file   string
	format string
	output string
}

func newCalcCmd() *cobra.Command {
	opts := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Print proposals for one configuration",
		Long: `Runs the proposal engine once and prints the ranked proposals.

Example:
  laborcalc calc --workers 10 --current 50 --target 40 --max-extra 5 --rate 25
  laborcalc calc --workers 10 --current 50 --target 40 --format xlsx -o proposals.xlsx
  laborcalc calc -f team.yaml --rate 30

A YAML file (-f) supplies the configuration; flags given on the command
line override its values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.file != "" {
				if err := opts.applyFile(cmd.Flags()); err != nil {
					return err
				}
			}
			return runCalc(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.cfg.NumberOfWorkers, "workers", 0, "number of workers")
	f.Float64Var(&opts.cfg.CurrentWeekHoursPerWorker, "current", 0, "current week hours per worker")
	f.Float64Var(&opts.cfg.TargetWeekHoursPerWorker, "target", 0, "target week hours per worker")
	f.Float64Var(&opts.cfg.MaxExtraHoursPerWorker, "max-extra", 0, "max extra hours per worker (0 disables overtime)")
	f.Float64Var(&opts.cfg.HourlyRate, "rate", 0, "hourly rate")
	f.StringVarP(&opts.file, "file", "f", "", "YAML file with the configuration")
	f.StringVar(&opts.format, "format", "table", "output format: table | json | xlsx")
	f.StringVarP(&opts.output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// applyFile loads opts.file and then re-applies every flag the user set
// explicitly, so flags win over the file.
func (o *calcOptions) applyFile(flags *pflag.FlagSet) error {
	data, err := os.ReadFile(o.file)
	if err != nil {
		return err
	}
	var fromFile coverage.Configuration
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parse %s: %w", o.file, err)
	}

	explicit := o.cfg
	o.cfg = fromFile
	flags.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "workers":
			o.cfg.NumberOfWorkers = explicit.NumberOfWorkers
		case "current":
			o.cfg.CurrentWeekHoursPerWorker = explicit.CurrentWeekHoursPerWorker
		case "target":
			o.cfg.TargetWeekHoursPerWorker = explicit.TargetWeekHoursPerWorker
		case "max-extra":
			o.cfg.MaxExtraHoursPerWorker = explicit.MaxExtraHoursPerWorker
		case "rate":
			o.cfg.HourlyRate = explicit.HourlyRate
		}
	})
	return nil
}

// createOutput opens the -o destination.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

var calcFormats = []string{"table", "json", "xlsx"}

func runCalc(stdout io.Writer, opts *calcOptions) (err error) {
	if !slices.Contains(calcFormats, opts.format) {
		return fmt.Errorf("unknown format %q (want table, json or xlsx)", opts.format)
	}

	proposals, err := coverage.Calculate(opts.cfg)
	if err != nil {
		var invalid *coverage.InvalidConfigurationError
		if errors.As(err, &invalid) {
			for _, fv := range invalid.Fields {
				logger.Debug("invalid field", zap.String("field", fv.Field), zap.String("reason", fv.Message))
			}
		}
		return err
	}
	logger.Debug("proposals generated", zap.Int("count", len(proposals)))

	if opts.output == "" {
		return writeProposals(stdout, opts, proposals)
	}
	f, err := createOutput(opts.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", opts.output, cerr)
		}
	}()
	return writeProposals(f, opts, proposals)
}

func writeProposals(w io.Writer, opts *calcOptions, proposals []coverage.Proposal) error {
	summary := coverage.Summarize(opts.cfg)
	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Configuration coverage.Configuration `json:"configuration"`
			Summary       coverage.Summary       `json:"summary"`
			Proposals     []coverage.Proposal    `json:"proposals"`
		}{opts.cfg, summary, proposals})
	case "xlsx":
		return report.WriteWorkbook(w, opts.cfg, summary, proposals)
	default:
		_, err := fmt.Fprintln(w, report.RenderTable(summary, proposals))
		return err
	}
}

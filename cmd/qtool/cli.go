package main

import (
	"github.com/spf13/cobra"

	"github.com/timescale/qtool"
)

// CliArgs holds the parsed command line arguments.
type CliArgs struct {
	Workers    int
	DBFile     string
	ParamsFile string
}

// buildCommand returns the root cobra command. DB_FILE is required;
// PARAMS_FILE is optional and, when absent, params are read from stdin.
func buildCommand(cli *CliArgs, run func(*CliArgs) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qtool DB_FILE [PARAMS_FILE]",
		Short: "Benchmark a per-host CPU-usage aggregation query",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.DBFile = args[0]
			if len(args) == 2 {
				cli.ParamsFile = args[1]
			}
			return run(cli)
		},
	}
	cmd.Flags().IntVarP(&cli.Workers, "workers", "w", qtool.DefaultWorkers, "number of concurrent workers [1-16]")
	cmd.SilenceUsage = true
	return cmd
}

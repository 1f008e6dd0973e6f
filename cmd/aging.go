package cmd

import (
	"fmt"

	"htas-bench/internal/benchmark"

	"github.com/spf13/cobra"
)

func newAgingCmd() *cobra.Command {
	demo := benchmark.DefaultAgingDemo()

	agingCmd := &cobra.Command{
		Use:   "aging",
		Short: "Run the standalone anti-starvation (aging) demonstration",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := benchmark.RunAgingDemo(demo)
			fmt.Print(result.Report)
			return nil
		},
	}

	agingCmd.Flags().IntVar(&demo.BullyPriority, "bully", demo.BullyPriority, "Bully task priority")
	agingCmd.Flags().IntVar(&demo.VictimPriority, "victim", demo.VictimPriority, "Victim task priority")
	agingCmd.Flags().Uint32Var(&demo.Threshold, "threshold", demo.Threshold, "Aging threshold in ticks")
	agingCmd.Flags().IntVar(&demo.Boost, "boost", demo.Boost, "Aging priority boost")
	agingCmd.Flags().Uint32Var(&demo.Ticks, "ticks", demo.Ticks, "Simulation length in ticks")

	return agingCmd
}

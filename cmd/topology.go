package cmd

import (
	"fmt"

	"htas-bench/internal/topology"

	"github.com/spf13/cobra"
)

func newTopologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Print the simulated hardware topology and simulation parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := topology.New(cfg.Topology)
			if err != nil {
				return err
			}

			fmt.Println("========================================")
			fmt.Println("          HARDWARE TOPOLOGY             ")
			fmt.Println("========================================")
			fmt.Println()
			fmt.Print(topo.Describe())

			sc := cfg.Scheduler
			fmt.Println("\nSimulation Parameters:")
			fmt.Printf("  E-Core Slowdown: %dx\n", sc.SlowdownFactor)
			fmt.Printf("  NUMA Penalty: %d cost units (cross-node access)\n", sc.NumaPenaltyCost)
			fmt.Printf("  LOW_LATENCY Priority Boost: +%d\n", sc.LowLatencyBoost)
			fmt.Printf("  AGING Threshold: %d ticks\n", sc.AgingThreshold)
			fmt.Printf("  AGING Priority Boost: +%d\n", sc.AgingBoost)
			fmt.Printf("  DYNAMIC Load Window: %d ticks\n", sc.InferenceWindow)
			fmt.Printf("  DYNAMIC Load Threshold: %d ticks\n", sc.InferenceThreshold)

			fmt.Println("\nTask Intent Profiles:")
			fmt.Println("  PERFORMANCE  -> Prefers P-cores, maximizes throughput")
			fmt.Println("  EFFICIENCY   -> Prefers E-cores, minimizes power")
			fmt.Println("  LOW_LATENCY  -> Requires P-cores + priority boost")
			fmt.Println("  DEFAULT      -> No restrictions (any core)")

			return nil
		},
	}
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"htas-bench/internal/benchmark"
	"htas-bench/internal/config"
	"htas-bench/internal/export"
	"htas-bench/internal/logging"
	"htas-bench/internal/sched"
	"htas-bench/internal/stats"
	"htas-bench/internal/topology"

	"github.com/spf13/cobra"
)

func newBenchmarkCmd() *cobra.Command {
	var policy string
	var duration uint32
	var spool bool
	var name string

	benchCmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run the synthetic workload benchmark and compare policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := topology.New(cfg.Topology)
			if err != nil {
				return err
			}

			benchCfg := cfg.Benchmark
			if duration > 0 {
				benchCfg.DurationTicks = duration
			}

			harness := benchmark.New(topo, cfg.Scheduler, benchCfg)

			// Single-policy run: just print that policy's statistics.
			if policy != "" {
				kind, err := sched.ParseKind(policy)
				if err != nil {
					return err
				}
				s := harness.Run(kind)
				fmt.Print(s.Format(kind.DisplayName()))
				return nil
			}

			results, err := harness.RunAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(results.Report())

			return exportResults(cmd.Context(), name, benchCfg, results, spool)
		},
	}

	benchCmd.Flags().StringVarP(&policy, "policy", "p", "", "Run a single policy (baseline, htas, dynamic); default runs all three")
	benchCmd.Flags().Uint32Var(&duration, "duration", 0, "Override benchmark duration in ticks")
	benchCmd.Flags().BoolVar(&spool, "spool", false, "Write a result artifact to the spool directory")
	benchCmd.Flags().StringVar(&name, "name", "mixed-workload", "Benchmark name used in exported results")

	return benchCmd
}

func exportResults(ctx context.Context, name string, benchCfg config.BenchmarkConfig, results *benchmark.Results, spool bool) error {
	logger := logging.GetLogger()

	resultMap := make(map[string]*stats.Stats)
	for _, kind := range sched.Kinds() {
		if results.ByKind[kind] != nil {
			resultMap[kind.String()] = results.ByKind[kind]
		}
	}

	if spool {
		artifact := &export.Artifact{
			Version:       1,
			CreatedAt:     time.Now(),
			BenchmarkName: name,
			DurationTicks: benchCfg.DurationTicks,
			TickMicros:    benchCfg.TickMicros,
			Results:       resultMap,
		}
		path, err := export.WriteArtifact(cfg.Export.SpoolDir, artifact)
		if err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		logger.WithField("path", path).Info("Benchmark artifact spooled")
	}

	if cfg.Export.DB.Enabled() {
		client, err := export.NewClient(cfg.Export.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.StoreResults(ctx, name, resultMap); err != nil {
			return err
		}
	}

	return nil
}

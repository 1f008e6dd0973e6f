package cmd

import (
	"fmt"

	"htas-bench/internal/logging"
	"htas-bench/internal/sched"
	"htas-bench/internal/task"
	"htas-bench/internal/topology"

	"github.com/spf13/cobra"
)

// liveEntity describes one entry of the demo process table driven by the
// live scheduler path.
type liveEntity struct {
	name    string
	intent  task.Intent
	data    *task.DataRegion
}

// demoEntities mirrors the benchmark archetypes as live table entries. The
// NUMA task's data region pins it to the node opposite its intent-class
// mask, exercising the affinity fallback.
func demoEntities() []liveEntity {
	return []liveEntity{
		{"PERF0", task.Performance, &task.DataRegion{Addr: 0x00100000, Size: 16 * 1024}},
		{"PERF1", task.Performance, &task.DataRegion{Addr: 0x08100000, Size: 16 * 1024}},
		{"EFFI0", task.Efficiency, &task.DataRegion{Addr: 0x08200000, Size: 4 * 1024}},
		{"EFFI1", task.Efficiency, &task.DataRegion{Addr: 0x08300000, Size: 4 * 1024}},
		{"EFFI2", task.Efficiency, &task.DataRegion{Addr: 0x08400000, Size: 4 * 1024}},
		{"EFFI3", task.Efficiency, &task.DataRegion{Addr: 0x08500000, Size: 4 * 1024}},
		{"LOW_LAT", task.LowLatency, &task.DataRegion{Addr: 0x00200000, Size: 8 * 1024}},
		{"NUMA", task.Performance, &task.DataRegion{Addr: 0x08600000, Size: 16 * 1024}},
	}
}

func newRunCmd() *cobra.Command {
	var policy string
	var ticks uint32

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the live selection path over a demo process table",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger()

			kind, err := sched.ParseKind(policy)
			if err != nil {
				return err
			}

			topo, err := topology.New(cfg.Topology)
			if err != nil {
				return err
			}

			table := task.NewTable(16, 16)
			entities := demoEntities()
			for _, ent := range entities {
				e, err := table.Add(ent.name, task.Ready)
				if err != nil {
					return err
				}
				profile := task.IntentProfile{Intent: ent.intent, Data: ent.data}
				if err := table.SetProfile(topo, e.ID, profile, cfg.Scheduler.LowLatencyBoost); err != nil {
					return err
				}
			}

			ctx := sched.NewContext(topo, table, cfg.Scheduler)
			ctx.SetKind(kind)

			logger.WithField("ticks", ticks).Info("Driving live scheduler")
			for i := uint32(0); i < ticks; i++ {
				current := table.Running()
				next := ctx.PickNext(current)
				ctx.RecordSwitch(current, next)
				table.SetRunning(next)

				// Each running entity touches its primary data once per tick.
				if next != nil && next.Sched != nil && next.Sched.Profile.Data != nil {
					data := next.Sched.Profile.Data
					ctx.SimulateAccess(next, data.Addr, 64)
				}
			}

			fmt.Print(ctx.ActiveStats().Format(kind.DisplayName()))
			logger.WithField("delay_cost", ctx.DelayCost()).Info("Accumulated simulated delay")
			return nil
		},
	}

	runCmd.Flags().StringVarP(&policy, "policy", "p", "htas", "Scheduler policy (baseline, htas, dynamic)")
	runCmd.Flags().Uint32Var(&ticks, "ticks", 1000, "Number of scheduling cycles to drive")

	return runCmd
}

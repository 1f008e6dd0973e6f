package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"htas-bench/internal/config"
	"htas-bench/internal/logging"
	"htas-bench/internal/stats"
	"htas-bench/internal/task"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"
)

// Client writes benchmark results to an InfluxDB bucket. It is optional:
// the benchmark runs entirely without it.
type Client struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	log    *logrus.Logger
}

// NewClient connects with the configured credentials.
func NewClient(cfg config.DatabaseConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("database export is not configured")
	}

	client := influxdb2.NewClient(cfg.Host, cfg.Token)
	return &Client{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:    logging.GetLogger(),
	}, nil
}

// StoreResults writes one point per policy with the aggregate counters and
// the per-intent runtime breakdown.
func (c *Client) StoreResults(ctx context.Context, benchmarkName string, results map[string]*stats.Stats) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	now := time.Now()

	for policy, s := range results {
		if s == nil {
			continue
		}

		fields := map[string]interface{}{
			"total_ticks":      int64(s.TotalTicks),
			"context_switches": int64(s.ContextSwitches),
			"numa_penalties":   int64(s.NumaPenalties),
			"fast_core_us":     int64(s.FastCoreMicros),
			"slow_core_us":     int64(s.SlowCoreMicros),
			"power_units":      int64(s.PowerUnits),
			"ll_avg_latency":   int64(s.Intents[task.LowLatency].AvgLatencyMicros),
			"ll_max_jitter":    int64(s.Intents[task.LowLatency].MaxJitterMicros),
		}
		for i := 0; i < task.NumIntents; i++ {
			intent := task.Intent(i)
			fields["runtime_"+intent.String()] = int64(s.Intents[i].RuntimeMicros)
		}

		point := influxdb2.NewPoint("scheduler_stats",
			map[string]string{
				"benchmark": benchmarkName,
				"policy":    policy,
				"hostname":  hostname,
			},
			fields,
			now,
		)

		if err := c.write.WritePoint(ctx, point); err != nil {
			c.log.WithFields(logrus.Fields{
				"policy":    policy,
				"benchmark": benchmarkName,
			}).WithError(err).Error("Failed to write benchmark results")
			return err
		}
	}

	c.log.WithField("benchmark", benchmarkName).Info("Benchmark results stored")
	return nil
}

// Close flushes and releases the underlying client.
func (c *Client) Close() {
	c.client.Close()
}

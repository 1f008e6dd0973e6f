package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"htas-bench/internal/logging"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(filepath string) (*Config, error) {
	cfg := Default()
	if filepath == "" {
		return cfg, nil
	}

	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

// Validate checks the structural invariants the simulation depends on:
// unique CPU ids, known core classes, CPUs only referencing declared NUMA
// nodes, and ordered non-overlapping memory regions.
func Validate(cfg *Config) error {
	if len(cfg.Topology.CPUs) == 0 {
		return fmt.Errorf("at least one CPU must be defined")
	}
	if len(cfg.Topology.Regions) == 0 {
		return fmt.Errorf("at least one NUMA region must be defined")
	}
	if len(cfg.Topology.CPUs) > 32 {
		return fmt.Errorf("at most 32 CPUs are supported (affinity masks are 32 bits)")
	}

	numNodes := len(cfg.Topology.Regions)
	ids := make(map[int]bool)
	for _, cpu := range cfg.Topology.CPUs {
		if cpu.Class != "fast" && cpu.Class != "slow" {
			return fmt.Errorf("cpu %d: unknown core class %q", cpu.ID, cpu.Class)
		}
		if cpu.Node < 0 || cpu.Node >= numNodes {
			return fmt.Errorf("cpu %d: NUMA node %d out of range (have %d regions)", cpu.ID, cpu.Node, numNodes)
		}
		if ids[cpu.ID] {
			return fmt.Errorf("cpu id %d is already used", cpu.ID)
		}
		ids[cpu.ID] = true
	}

	var prevEnd uint64
	for i, region := range cfg.Topology.Regions {
		if region.Size == 0 {
			return fmt.Errorf("region %d: size must be greater than 0", i)
		}
		if i > 0 && region.Base < prevEnd {
			return fmt.Errorf("region %d: overlaps or is out of order (base 0x%x < previous end 0x%x)", i, region.Base, prevEnd)
		}
		prevEnd = region.Base + region.Size
	}

	if cfg.Scheduler.AgingThreshold == 0 {
		return fmt.Errorf("aging_threshold must be greater than 0")
	}
	if cfg.Scheduler.SlowdownFactor == 0 {
		return fmt.Errorf("slowdown_factor must be greater than 0")
	}
	for _, w := range []WeightsConfig{cfg.Scheduler.LiveWeights, cfg.Scheduler.HintWeights, cfg.Scheduler.InferenceWeights} {
		if w.AgeDivisor < 0 {
			return fmt.Errorf("age_divisor must not be negative")
		}
	}

	if cfg.Benchmark.DurationTicks == 0 {
		return fmt.Errorf("benchmark duration_ticks must be greater than 0")
	}
	if cfg.Benchmark.TickMicros == 0 {
		return fmt.Errorf("benchmark tick_micros must be greater than 0")
	}

	return nil
}
